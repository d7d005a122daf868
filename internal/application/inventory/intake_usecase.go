package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// IntakeUseCase registro de lotes de ingreso y edición controlada de su cantidad.
type IntakeUseCase struct {
	deps  Deps
	guard *ConsistencyGuard
}

// NewIntakeUseCase construye el caso de uso.
func NewIntakeUseCase(deps Deps, guard *ConsistencyGuard) *IntakeUseCase {
	return &IntakeUseCase{deps: deps, guard: guard}
}

// CreateBatchInput datos de la recepción.
type CreateBatchInput struct {
	BusinessID         string
	LocationID         string
	ProductID          string
	SupplierID         string
	Quantity           decimal.Decimal
	UnitCost           decimal.Decimal
	UnitTax            decimal.Decimal
	AdditionalCost     decimal.Decimal
	RetailPrice        decimal.Decimal
	WholesalePrice     decimal.Decimal
	ExpiresAt          *time.Time
	RepresentsTransfer bool
	ReceivedAt         time.Time
}

// CreateBatch registra el lote con cantidad calculada igual a la de ingreso.
func (uc *IntakeUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.IntakeBatch, error) {
	if in.BusinessID == "" || in.LocationID == "" || in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "la cantidad de ingreso debe ser mayor que cero")
	}
	for _, v := range []decimal.Decimal{in.UnitCost, in.UnitTax, in.AdditionalCost, in.RetailPrice, in.WholesalePrice} {
		if v.IsNegative() {
			return nil, domain.NewValidationError(domain.ErrInvalidInput, "los costos y precios no pueden ser negativos")
		}
	}

	loc, err := uc.deps.Repos.Locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	if loc.BusinessID != in.BusinessID {
		return nil, domain.ErrForbidden
	}
	product, err := uc.deps.Repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.BusinessID != in.BusinessID {
		return nil, domain.ErrForbidden
	}

	now := uc.deps.Policy.now()
	received := in.ReceivedAt
	if received.IsZero() {
		received = now
	}
	batch := &entity.IntakeBatch{
		ID:                 uuid.New().String(),
		BusinessID:         in.BusinessID,
		LocationID:         in.LocationID,
		ProductID:          in.ProductID,
		SupplierID:         in.SupplierID,
		Quantity:           in.Quantity,
		UnitCost:           in.UnitCost,
		UnitTax:            in.UnitTax,
		AdditionalCost:     in.AdditionalCost,
		CalculatedQuantity: in.Quantity,
		RetailPrice:        in.RetailPrice,
		WholesalePrice:     in.WholesalePrice,
		ExpiresAt:          in.ExpiresAt,
		RepresentsTransfer: in.RepresentsTransfer,
		ReceivedAt:         received,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.deps.Repos.Batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("crear lote: %w", err)
	}
	uc.deps.log().Info().
		Str("batch_id", batch.ID).
		Str("product_id", batch.ProductID).
		Str("location_id", batch.LocationID).
		Str("quantity", batch.Quantity.String()).
		Msg("lote de ingreso registrado")
	return batch, nil
}

// UpdateIntakeQuantity corrige la cantidad de ingreso mientras ningún movimiento referencie el lote.
// La cantidad calculada se desplaza por la misma diferencia.
func (uc *IntakeUseCase) UpdateIntakeQuantity(ctx context.Context, batchID string, quantity decimal.Decimal) (*entity.IntakeBatch, error) {
	if batchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "la cantidad de ingreso debe ser mayor que cero")
	}
	var out *entity.IntakeBatch
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		batch, err := repos.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrNotFound
		}
		if err := uc.guard.CheckIntakeEdit(ctx, repos, batch); err != nil {
			return err
		}
		calc := clampZero(batch.CalculatedQuantity.Add(quantity.Sub(batch.Quantity)))
		if err := repos.Batches.UpdateIntakeQuantity(ctx, batch.ID, quantity, calc); err != nil {
			return fmt.Errorf("actualizar ingreso: %w", err)
		}
		batch.Quantity = quantity
		batch.CalculatedQuantity = calc
		batch.UpdatedAt = uc.deps.Policy.now()
		out = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBatch devuelve el lote o ErrNotFound.
func (uc *IntakeUseCase) GetBatch(ctx context.Context, id string) (*entity.IntakeBatch, error) {
	batch, err := uc.deps.Repos.Batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}
