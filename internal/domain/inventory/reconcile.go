package inventory

import (
	"github.com/shopspring/decimal"
)

// BatchLedger datos de un lote para la reconciliación, ya en orden de consumo.
type BatchLedger struct {
	BatchID         string
	Intake          decimal.Decimal
	AdjustmentDelta decimal.Decimal // suma de ajustes completados que cuentan
	Current         decimal.Decimal // calculated_quantity persistida
}

// Capacity max(0, intake + ajustes).
func (b BatchLedger) Capacity() decimal.Decimal {
	return decimal.Max(decimal.Zero, b.RawCapacity())
}

// RawCapacity intake + ajustes sin recortar; negativo indica un problema de integridad.
func (b BatchLedger) RawCapacity() decimal.Decimal {
	return b.Intake.Add(b.AdjustmentDelta)
}

// BatchResult cantidad calculada esperada de un lote.
type BatchResult struct {
	BatchID  string
	Before   decimal.Decimal
	After    decimal.Decimal
	Consumed decimal.Decimal
}

// Changed indica si la cantidad calculada difiere de la persistida.
func (r BatchResult) Changed() bool {
	return !r.Before.Equal(r.After)
}

// Distribution resultado de reconciliar un grupo de producto.
type Distribution struct {
	TotalCapacity decimal.Decimal
	ExpectedTotal decimal.Decimal
	Reduction     decimal.Decimal
	Unallocated   decimal.Decimal
	Batches       []BatchResult
}

// Distribute calcula expected_total = clamp(Σcapacidad - vendido + reembolsado, 0, Σcapacidad)
// y reparte la reducción Σcapacidad - expected_total entre los lotes en el orden recibido
// (el llamador los entrega ya ordenados, el más antiguo primero). Lo que no se pudo asignar
// queda en Unallocated para reportarse como advertencia.
func Distribute(batches []BatchLedger, sold, refunded decimal.Decimal) Distribution {
	d := Distribution{TotalCapacity: decimal.Zero}
	for _, b := range batches {
		d.TotalCapacity = d.TotalCapacity.Add(b.Capacity())
	}
	expected := d.TotalCapacity.Sub(sold).Add(refunded)
	expected = decimal.Max(decimal.Zero, decimal.Min(expected, d.TotalCapacity))
	d.ExpectedTotal = expected
	d.Reduction = d.TotalCapacity.Sub(expected)

	remaining := d.Reduction
	d.Batches = make([]BatchResult, 0, len(batches))
	for _, b := range batches {
		capacity := b.Capacity()
		consume := decimal.Min(capacity, remaining)
		remaining = remaining.Sub(consume)
		d.Batches = append(d.Batches, BatchResult{
			BatchID:  b.BatchID,
			Before:   b.Current,
			After:    capacity.Sub(consume),
			Consumed: consume,
		})
	}
	d.Unallocated = remaining
	return d
}
