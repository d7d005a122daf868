package inventory

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Órdenes de consumo configurables.
const (
	OrderFIFO = "fifo" // lote más antiguo primero
	OrderFEFO = "fefo" // vencimiento más próximo primero
)

// Entry entrada de inventario consumible (lote o stock agregado de la ubicación).
type Entry struct {
	Kind       string
	ID         string
	OnHand     decimal.Decimal
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
	ExpiresAt  *time.Time
}

// Comparator define el orden de consumo entre entradas; debe ser determinístico.
type Comparator func(a, b Entry) int

// OldestFirst ordena por fecha de recepción; empates por ID.
func OldestFirst(a, b Entry) int {
	if c := a.ReceivedAt.Compare(b.ReceivedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// EarliestExpiryFirst ordena por vencimiento (sin vencimiento al final) y luego como OldestFirst.
func EarliestExpiryFirst(a, b Entry) int {
	switch {
	case a.ExpiresAt != nil && b.ExpiresAt != nil:
		if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
			return c
		}
	case a.ExpiresAt != nil:
		return -1
	case b.ExpiresAt != nil:
		return 1
	}
	return OldestFirst(a, b)
}

// ComparatorByName resuelve el comparador configurado ("fifo" por defecto).
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", OrderFIFO:
		return OldestFirst, nil
	case OrderFEFO:
		return EarliestExpiryFirst, nil
	}
	return nil, fmt.Errorf("orden de consumo desconocido: %q", name)
}

// Sort ordena las entradas en el orden de consumo (estable).
func Sort(entries []Entry, order Comparator) {
	if order == nil {
		order = OldestFirst
	}
	slices.SortStableFunc(entries, order)
}

// Take cantidad tomada de una entrada.
type Take struct {
	Entry    Entry
	Quantity decimal.Decimal
}

// TotalOnHand suma las existencias positivas de las entradas.
func TotalOnHand(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.OnHand.IsPositive() {
			total = total.Add(e.OnHand)
		}
	}
	return total
}

// Allocate toma required unidades de las entradas en el orden dado. Si no alcanza devuelve
// ok=false y ninguna toma: el consumo es todo o nada.
func Allocate(entries []Entry, required decimal.Decimal, order Comparator) (takes []Take, ok bool) {
	if !required.IsPositive() {
		return nil, true
	}
	if TotalOnHand(entries).LessThan(required) {
		return nil, false
	}
	sorted := slices.Clone(entries)
	Sort(sorted, order)
	remaining := required
	for _, e := range sorted {
		if !remaining.IsPositive() {
			break
		}
		if !e.OnHand.IsPositive() {
			continue
		}
		q := decimal.Min(e.OnHand, remaining)
		takes = append(takes, Take{Entry: e, Quantity: q})
		remaining = remaining.Sub(q)
	}
	return takes, true
}

// WeightedUnitCost costo unitario promedio ponderado de las tomas.
func WeightedUnitCost(takes []Take) decimal.Decimal {
	qty, cost := decimal.Zero, decimal.Zero
	for _, t := range takes {
		cost = CostCalculator(qty, cost, t.Quantity, t.Entry.UnitCost)
		qty = qty.Add(t.Quantity)
	}
	return cost
}
