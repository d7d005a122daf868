package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationStockRepository define el puerto para el inventario agregado por ubicación+producto.
// Usado dentro de transacciones para garantizar consistencia.
type LocationStockRepository interface {
	Get(ctx context.Context, locationID, productID string) (*entity.LocationStock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); nil si no existe.
	GetForUpdate(ctx context.Context, locationID, productID string) (*entity.LocationStock, error)
	// GetOrCreateForUpdate crea la fila en cero si no existe y luego la bloquea.
	GetOrCreateForUpdate(ctx context.Context, locationID, productID string) (*entity.LocationStock, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.LocationStock, error)
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
	// HasPositiveForProduct indica si alguna ubicación tiene stock recibido positivo del producto.
	HasPositiveForProduct(ctx context.Context, productID string) (bool, error)
}
