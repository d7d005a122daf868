package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustmentRepository define el puerto de persistencia para ajustes de stock.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	// GetForUpdate bloquea la fila del ajuste (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error)
	// Update persiste estado, actores y marcas de tiempo; nunca la cantidad ni el lote.
	Update(ctx context.Context, adj *entity.Adjustment) error
	ListByReference(ctx context.Context, reference string) ([]*entity.Adjustment, error)
	ListCompletedByBatch(ctx context.Context, batchID string) ([]*entity.Adjustment, error)
	// ListCompletedByBatches agrupa por lote los ajustes completados (reconciliación).
	ListCompletedByBatches(ctx context.Context, batchIDs []string) (map[string][]*entity.Adjustment, error)
	CountCompletedByBatch(ctx context.Context, batchID string) (int, error)
}
