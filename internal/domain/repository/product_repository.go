package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de lectura para productos.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
