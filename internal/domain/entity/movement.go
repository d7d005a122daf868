package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clases de movimiento expuestas al agregador de reportes.
const (
	MovementKindAdjustment = "ADJUSTMENT"
	MovementKindTransfer   = "TRANSFER"
)

// Movement registro normalizado de solo lectura para reconstruir un feed unificado de movimientos
// (ajustes, traslados) sin re-derivar las invariantes del ledger.
type Movement struct {
	Kind                  string
	Type                  string
	ProductID             string
	SignedQuantity        decimal.Decimal
	ReferenceID           string
	SourceLocationID      string
	DestinationLocationID string
	OccurredAt            time.Time
	Actor                 string
}

// Movement normaliza un ajuste completado. locationID es la ubicación del lote; los aumentos
// se reportan como destino y las disminuciones como origen. ok es false si el ajuste no afecta stock.
func (a *Adjustment) Movement(locationID, productID string) (Movement, bool) {
	if a.Status != AdjustmentCompleted || a.CompletedAt == nil {
		return Movement{}, false
	}
	ref := a.ReferenceNumber
	if ref == "" {
		ref = a.ID
	}
	m := Movement{
		Kind:           MovementKindAdjustment,
		Type:           string(a.Type),
		ProductID:      productID,
		SignedQuantity: a.CountedQuantity(),
		ReferenceID:    ref,
		OccurredAt:     *a.CompletedAt,
		Actor:          a.CompletedBy,
	}
	if a.Quantity.IsNegative() {
		m.SourceLocationID = locationID
	} else {
		m.DestinationLocationID = locationID
	}
	return m, true
}

// Movements normaliza un traslado completado: un registro por ítem con la cantidad requerida.
func (t *Transfer) Movements() []Movement {
	if t.Status != TransferCompleted || t.CompletedAt == nil {
		return nil
	}
	out := make([]Movement, 0, len(t.Items))
	for _, it := range t.Items {
		out = append(out, Movement{
			Kind:                  MovementKindTransfer,
			Type:                  string(t.Status),
			ProductID:             it.ProductID,
			SignedQuantity:        it.RequiredQuantity(),
			ReferenceID:           t.Reference,
			SourceLocationID:      t.SourceLocationID,
			DestinationLocationID: t.DestinationLocationID,
			OccurredAt:            *t.CompletedAt,
			Actor:                 t.CompletedBy,
		})
	}
	return out
}
