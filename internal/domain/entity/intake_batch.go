package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntakeBatch registro de una recepción de mercancía en una ubicación.
// Quantity (ingreso) es inmutable desde el primer movimiento que referencia el lote;
// CalculatedQuantity es la cantidad de trabajo derivada del ledger.
type IntakeBatch struct {
	ID                 string
	BusinessID         string
	LocationID         string
	ProductID          string
	SupplierID         string
	Quantity           decimal.Decimal
	UnitCost           decimal.Decimal
	UnitTax            decimal.Decimal
	AdditionalCost     decimal.Decimal // cargos adicionales totales del lote (flete, aduana)
	CalculatedQuantity decimal.Decimal
	RetailPrice        decimal.Decimal
	WholesalePrice     decimal.Decimal
	ExpiresAt          *time.Time
	// RepresentsTransfer marca lotes creados para representar la llegada de un traslado:
	// el TRANSFER_IN correspondiente no vuelve a sumar la cantidad.
	RepresentsTransfer bool
	ReceivedAt         time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LandedUnitCost costo unitario puesto en bodega: costo + impuesto + cargos prorrateados.
func (b *IntakeBatch) LandedUnitCost() decimal.Decimal {
	cost := b.UnitCost.Add(b.UnitTax)
	if b.Quantity.GreaterThan(decimal.Zero) && !b.AdditionalCost.IsZero() {
		cost = cost.Add(b.AdditionalCost.Div(b.Quantity))
	}
	return cost
}
