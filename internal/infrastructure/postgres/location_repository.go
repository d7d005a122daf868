package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo lectura de bodegas y tiendas.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de lectura para ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID; nil si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `
		SELECT id, business_id, name, kind, created_at, updated_at
		FROM locations WHERE id = $1`
	var l entity.Location
	err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.BusinessID, &l.Name, &l.Kind, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
