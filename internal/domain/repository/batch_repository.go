package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductGroup grupo de reconciliación: un producto de un negocio.
type ProductGroup struct {
	BusinessID string
	ProductID  string
}

// BatchRepository define el puerto de persistencia para lotes de ingreso.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.IntakeBatch) error
	GetByID(ctx context.Context, id string) (*entity.IntakeBatch, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.IntakeBatch, error)
	ListByLocationProduct(ctx context.Context, locationID, productID string) ([]*entity.IntakeBatch, error)
	// ListForUpdateByLocationProduct bloquea los lotes en orden de ID para evitar deadlocks.
	ListForUpdateByLocationProduct(ctx context.Context, locationID, productID string) ([]*entity.IntakeBatch, error)
	ListByProduct(ctx context.Context, businessID, productID string) ([]*entity.IntakeBatch, error)
	ListForUpdateByProduct(ctx context.Context, businessID, productID string) ([]*entity.IntakeBatch, error)
	ListProductGroups(ctx context.Context, businessID string) ([]ProductGroup, error)
	UpdateIntakeQuantity(ctx context.Context, id string, quantity, calculated decimal.Decimal) error
	UpdateCalculatedQuantity(ctx context.Context, id string, calculated decimal.Decimal) error
}
