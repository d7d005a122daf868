package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBatchRequest body para POST /api/batches.
type CreateBatchRequest struct {
	LocationID         string          `json:"location_id" validate:"required,uuid"`
	ProductID          string          `json:"product_id" validate:"required,uuid"`
	SupplierID         string          `json:"supplier_id" validate:"omitempty,max=64"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	UnitTax            decimal.Decimal `json:"unit_tax"`
	AdditionalCost     decimal.Decimal `json:"additional_cost"`
	RetailPrice        decimal.Decimal `json:"retail_price"`
	WholesalePrice     decimal.Decimal `json:"wholesale_price"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	RepresentsTransfer bool            `json:"represents_transfer"`
	ReceivedAt         *time.Time      `json:"received_at,omitempty"`
}

// UpdateIntakeRequest body para PATCH /api/batches/:id/intake.
type UpdateIntakeRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// BatchResponse lote de ingreso.
type BatchResponse struct {
	ID                 string          `json:"id"`
	LocationID         string          `json:"location_id"`
	ProductID          string          `json:"product_id"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	CalculatedQuantity decimal.Decimal `json:"calculated_quantity"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	LandedUnitCost     decimal.Decimal `json:"landed_unit_cost"`
	RetailPrice        decimal.Decimal `json:"retail_price"`
	WholesalePrice     decimal.Decimal `json:"wholesale_price"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	RepresentsTransfer bool            `json:"represents_transfer"`
	ReceivedAt         time.Time       `json:"received_at"`
}

// AvailabilityResponse desglose de disponibilidad de un lote.
type AvailabilityResponse struct {
	BatchID         string          `json:"batch_id"`
	Intake          decimal.Decimal `json:"intake"`
	AdjustmentDelta decimal.Decimal `json:"adjustment_delta"`
	TransferredOut  decimal.Decimal `json:"transferred_out"`
	Sold            decimal.Decimal `json:"sold"`
	Available       decimal.Decimal `json:"available"`
}
