package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAdjustmentRequest body para POST /api/adjustments.
type CreateAdjustmentRequest struct {
	BatchID  string           `json:"batch_id" validate:"required,uuid"`
	Type     string           `json:"type" validate:"required,oneof=THEFT DAMAGE EXPIRED LOSS SPOILAGE WRITE_OFF TRANSFER_OUT FOUND RETURN_TO_STOCK TRANSFER_IN CORRECTION CYCLE_COUNT"`
	Quantity decimal.Decimal  `json:"quantity"`
	Reason   string           `json:"reason" validate:"omitempty,max=500"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreatePairedRequest body para POST /api/adjustments/paired.
type CreatePairedRequest struct {
	SourceBatchID      string          `json:"source_batch_id" validate:"required,uuid"`
	DestinationBatchID string          `json:"destination_batch_id" validate:"required,uuid,nefield=SourceBatchID"`
	Quantity           decimal.Decimal `json:"quantity"`
	Reason             string          `json:"reason" validate:"omitempty,max=500"`
}

// AdjustmentResponse ajuste con sus actores.
type AdjustmentResponse struct {
	ID                       string          `json:"id"`
	BatchID                  string          `json:"batch_id"`
	Type                     string          `json:"type"`
	Quantity                 decimal.Decimal `json:"quantity"`
	QuantityBefore           decimal.Decimal `json:"quantity_before"`
	UnitCost                 decimal.Decimal `json:"unit_cost"`
	TotalCost                decimal.Decimal `json:"total_cost"`
	Reason                   string          `json:"reason,omitempty"`
	Status                   string          `json:"status"`
	RequiresApproval         bool            `json:"requires_approval"`
	ReferenceNumber          string          `json:"reference_number,omitempty"`
	ExcludedFromAvailability bool            `json:"excluded_from_availability"`
	CreatedBy                string          `json:"created_by"`
	ApprovedBy               string          `json:"approved_by,omitempty"`
	ApprovedAt               *time.Time      `json:"approved_at,omitempty"`
	RejectedBy               string          `json:"rejected_by,omitempty"`
	RejectedAt               *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason          string          `json:"rejection_reason,omitempty"`
	CompletedBy              string          `json:"completed_by,omitempty"`
	CompletedAt              *time.Time      `json:"completed_at,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
}

// PairedResponse ambas patas del traslado por ajustes.
type PairedResponse struct {
	Out AdjustmentResponse `json:"out"`
	In  AdjustmentResponse `json:"in"`
}
