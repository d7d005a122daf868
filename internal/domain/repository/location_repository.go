package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationRepository define el puerto de lectura para ubicaciones (bodegas y tiendas).
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}
