package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// CreateBatchFromRequest adapta el request HTTP a CreateBatch.
func (uc *IntakeUseCase) CreateBatchFromRequest(ctx context.Context, businessID string, in dto.CreateBatchRequest) (*entity.IntakeBatch, error) {
	input := CreateBatchInput{
		BusinessID:         businessID,
		LocationID:         in.LocationID,
		ProductID:          in.ProductID,
		SupplierID:         in.SupplierID,
		Quantity:           in.Quantity,
		UnitCost:           in.UnitCost,
		UnitTax:            in.UnitTax,
		AdditionalCost:     in.AdditionalCost,
		RetailPrice:        in.RetailPrice,
		WholesalePrice:     in.WholesalePrice,
		ExpiresAt:          in.ExpiresAt,
		RepresentsTransfer: in.RepresentsTransfer,
	}
	if in.ReceivedAt != nil {
		input.ReceivedAt = in.ReceivedAt.UTC()
	}
	return uc.CreateBatch(ctx, input)
}

// CreateFromRequest adapta el request HTTP a Create.
func (uc *AdjustmentUseCase) CreateFromRequest(ctx context.Context, userID string, in dto.CreateAdjustmentRequest) (*entity.Adjustment, error) {
	return uc.Create(ctx, CreateAdjustmentInput{
		BatchID:  in.BatchID,
		Type:     entity.AdjustmentType(in.Type),
		Quantity: in.Quantity,
		Reason:   in.Reason,
		UnitCost: in.UnitCost,
		Actor:    userID,
	})
}

// CreatePairedFromRequest adapta el request HTTP a CreatePaired.
func (uc *AdjustmentUseCase) CreatePairedFromRequest(ctx context.Context, userID string, in dto.CreatePairedRequest) (out, into *entity.Adjustment, err error) {
	return uc.CreatePaired(ctx, CreatePairedInput{
		SourceBatchID:      in.SourceBatchID,
		DestinationBatchID: in.DestinationBatchID,
		Quantity:           in.Quantity,
		Reason:             in.Reason,
		Actor:              userID,
	})
}

// CreateFromRequest adapta el request HTTP a Create.
func (uc *TransferUseCase) CreateFromRequest(ctx context.Context, businessID, userID string, in dto.CreateTransferRequest) (*entity.Transfer, error) {
	items := make([]LineItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, LineItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return uc.Create(ctx, CreateTransferInput{
		BusinessID:            businessID,
		Reference:             in.Reference,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		Notes:                 in.Notes,
		Items:                 items,
		Actor:                 userID,
	})
}

// BatchToResponse mapea el lote a su DTO.
func BatchToResponse(b *entity.IntakeBatch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                 b.ID,
		LocationID:         b.LocationID,
		ProductID:          b.ProductID,
		SupplierID:         b.SupplierID,
		Quantity:           b.Quantity,
		CalculatedQuantity: b.CalculatedQuantity,
		UnitCost:           b.UnitCost,
		LandedUnitCost:     b.LandedUnitCost(),
		RetailPrice:        b.RetailPrice,
		WholesalePrice:     b.WholesalePrice,
		ExpiresAt:          b.ExpiresAt,
		RepresentsTransfer: b.RepresentsTransfer,
		ReceivedAt:         b.ReceivedAt,
	}
}

// AvailabilityToResponse mapea el desglose de disponibilidad del lote.
func AvailabilityToResponse(batchID string, a inventory.Availability) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		BatchID:         batchID,
		Intake:          a.Intake,
		AdjustmentDelta: a.AdjustmentDelta,
		TransferredOut:  a.TransferredOut,
		Sold:            a.Sold,
		Available:       a.Available,
	}
}

// AdjustmentToResponse mapea el ajuste a su DTO.
func AdjustmentToResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:                       a.ID,
		BatchID:                  a.BatchID,
		Type:                     string(a.Type),
		Quantity:                 a.Quantity,
		QuantityBefore:           a.QuantityBefore,
		UnitCost:                 a.UnitCost,
		TotalCost:                a.TotalCost,
		Reason:                   a.Reason,
		Status:                   string(a.Status),
		RequiresApproval:         a.RequiresApproval,
		ReferenceNumber:          a.ReferenceNumber,
		ExcludedFromAvailability: a.ExcludedFromAvailability,
		CreatedBy:                a.CreatedBy,
		ApprovedBy:               a.ApprovedBy,
		ApprovedAt:               a.ApprovedAt,
		RejectedBy:               a.RejectedBy,
		RejectedAt:               a.RejectedAt,
		RejectionReason:          a.RejectionReason,
		CompletedBy:              a.CompletedBy,
		CompletedAt:              a.CompletedAt,
		CreatedAt:                a.CreatedAt,
	}
}

// TransferToResponse mapea el traslado con ítems y bitácora a su DTO.
func TransferToResponse(t *entity.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:                    t.ID,
		Reference:             t.Reference,
		Status:                string(t.Status),
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		Notes:                 t.Notes,
		RejectionReason:       t.RejectionReason,
		CancellationReason:    t.CancellationReason,
		Items:                 make([]dto.LineItemResponse, 0, len(t.Items)),
		Audit:                 make([]dto.AuditEntryResponse, 0, len(t.Audit)),
		CreatedBy:             t.CreatedBy,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
	for _, it := range t.Items {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			RequestedQuantity: it.RequestedQuantity,
			ApprovedQuantity:  it.ApprovedQuantity,
			FulfilledQuantity: it.FulfilledQuantity,
			RequiredQuantity:  it.RequiredQuantity(),
			UnitCost:          it.UnitCost,
		})
	}
	for _, a := range t.Audit {
		resp.Audit = append(resp.Audit, dto.AuditEntryResponse{
			Action:     a.Action,
			FromStatus: string(a.FromStatus),
			ToStatus:   string(a.ToStatus),
			Actor:      a.Actor,
			Remarks:    a.Remarks,
			CreatedAt:  a.CreatedAt.In(time.UTC),
		})
	}
	return resp
}
