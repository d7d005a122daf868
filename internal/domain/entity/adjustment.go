package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType tipo de ajuste manual de stock.
type AdjustmentType string

// Tipos de ajuste. La categoría (disminución/aumento/bidireccional) define el signo de la cantidad.
const (
	AdjustmentTheft         AdjustmentType = "THEFT"
	AdjustmentDamage        AdjustmentType = "DAMAGE"
	AdjustmentExpired       AdjustmentType = "EXPIRED"
	AdjustmentLoss          AdjustmentType = "LOSS"
	AdjustmentSpoilage      AdjustmentType = "SPOILAGE"
	AdjustmentWriteOff      AdjustmentType = "WRITE_OFF"
	AdjustmentTransferOut   AdjustmentType = "TRANSFER_OUT"
	AdjustmentFound         AdjustmentType = "FOUND"
	AdjustmentReturnToStock AdjustmentType = "RETURN_TO_STOCK"
	AdjustmentTransferIn    AdjustmentType = "TRANSFER_IN"
	AdjustmentCorrection    AdjustmentType = "CORRECTION"
	AdjustmentCycleCount    AdjustmentType = "CYCLE_COUNT"
)

// AdjustmentStatus estado del flujo de aprobación.
type AdjustmentStatus string

const (
	AdjustmentPending   AdjustmentStatus = "PENDING"
	AdjustmentApproved  AdjustmentStatus = "APPROVED"
	AdjustmentRejected  AdjustmentStatus = "REJECTED"
	AdjustmentCompleted AdjustmentStatus = "COMPLETED"
)

// Adjustment corrección manual de stock sobre un lote. Nunca modifica la cantidad de ingreso:
// su efecto solo es visible a través de la fórmula de disponibilidad.
type Adjustment struct {
	ID               string
	BatchID          string
	Type             AdjustmentType
	Quantity         decimal.Decimal // con signo
	QuantityBefore   decimal.Decimal // disponibilidad al crear, se fija una sola vez
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal // UnitCost * |Quantity|, siempre recalculado
	Reason           string
	Status           AdjustmentStatus
	RequiresApproval bool
	ReferenceNumber  string // correlaciona las dos patas de un traslado pareado
	// ExcludedFromAvailability se marca al completar un TRANSFER_IN sobre un lote que ya representa el traslado.
	ExcludedFromAvailability bool
	CreatedBy                string
	ApprovedBy               string
	ApprovedAt               *time.Time
	RejectedBy               string
	RejectedAt               *time.Time
	RejectionReason          string
	CompletedBy              string
	CompletedAt              *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// RecomputeTotalCost recalcula TotalCost; el total nunca se fija a mano.
func (a *Adjustment) RecomputeTotalCost() {
	a.TotalCost = a.UnitCost.Mul(a.Quantity.Abs())
}

// CountedQuantity delta que cuenta en la disponibilidad (cero si no está completado o fue excluido).
func (a *Adjustment) CountedQuantity() decimal.Decimal {
	if a.Status != AdjustmentCompleted || a.ExcludedFromAvailability {
		return decimal.Zero
	}
	return a.Quantity
}

// IsTerminal indica si el ajuste ya no admite transiciones.
func (a *Adjustment) IsTerminal() bool {
	return a.Status == AdjustmentCompleted || a.Status == AdjustmentRejected
}
