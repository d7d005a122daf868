package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest ítem solicitado.
type LineItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	Reference             string            `json:"reference" validate:"omitempty,max=64"`
	SourceLocationID      string            `json:"source_location_id" validate:"required,uuid"`
	DestinationLocationID string            `json:"destination_location_id" validate:"required,uuid,nefield=SourceLocationID"`
	Notes                 string            `json:"notes" validate:"omitempty,max=1000"`
	Items                 []LineItemRequest `json:"items" validate:"omitempty,dive"`
}

// QuantitiesRequest cantidades aprobadas o despachadas por ID de ítem (opcional).
type QuantitiesRequest struct {
	Quantities map[string]decimal.Decimal `json:"quantities"`
}

// LineItemResponse ítem del traslado.
type LineItemResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	ApprovedQuantity  *decimal.Decimal `json:"approved_quantity,omitempty"`
	FulfilledQuantity *decimal.Decimal `json:"fulfilled_quantity,omitempty"`
	RequiredQuantity  decimal.Decimal  `json:"required_quantity"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
}

// AuditEntryResponse entrada de bitácora.
type AuditEntryResponse struct {
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferResponse traslado con ítems y bitácora.
type TransferResponse struct {
	ID                    string               `json:"id"`
	Reference             string               `json:"reference"`
	Status                string               `json:"status"`
	SourceLocationID      string               `json:"source_location_id"`
	DestinationLocationID string               `json:"destination_location_id"`
	Notes                 string               `json:"notes,omitempty"`
	RejectionReason       string               `json:"rejection_reason,omitempty"`
	CancellationReason    string               `json:"cancellation_reason,omitempty"`
	Items                 []LineItemResponse   `json:"items"`
	Audit                 []AuditEntryResponse `json:"audit"`
	CreatedBy             string               `json:"created_by"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// AvailableResponse cantidad disponible para traslado.
type AvailableResponse struct {
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	Available  decimal.Decimal `json:"available"`
}
