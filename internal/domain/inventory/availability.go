package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Availability desglose de la disponibilidad de un lote:
// Available = Intake + AdjustmentDelta - TransferredOut - Sold.
// AdjustmentDelta excluye las salidas por traslado, que se reportan aparte en TransferredOut.
type Availability struct {
	Intake          decimal.Decimal `json:"intake"`
	AdjustmentDelta decimal.Decimal `json:"adjustment_delta"`
	TransferredOut  decimal.Decimal `json:"transferred_out"`
	Sold            decimal.Decimal `json:"sold"`
	Available       decimal.Decimal `json:"available"`
}

// ComputeAvailability calcula la disponibilidad con los ajustes completados (los demás se ignoran)
// y la cantidad vendida. excludeID permite omitir el ajuste que se está validando.
func ComputeAvailability(intake decimal.Decimal, adjustments []*entity.Adjustment, excludeID string, sold decimal.Decimal) Availability {
	a := Availability{Intake: intake, Sold: sold}
	for _, adj := range adjustments {
		if adj.ID == excludeID {
			continue
		}
		q := adj.CountedQuantity()
		if adj.Type == entity.AdjustmentTransferOut {
			a.TransferredOut = a.TransferredOut.Add(q.Neg())
			continue
		}
		a.AdjustmentDelta = a.AdjustmentDelta.Add(q)
	}
	a.Available = a.Intake.Add(a.AdjustmentDelta).Sub(a.TransferredOut).Sub(a.Sold)
	return a
}

// Apply devuelve la disponibilidad resultante de aplicar delta.
func (a Availability) Apply(delta decimal.Decimal) decimal.Decimal {
	return a.Available.Add(delta)
}
