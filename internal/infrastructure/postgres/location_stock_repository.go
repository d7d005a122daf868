package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LocationStockRepository = (*LocationStockRepo)(nil)

const locationStockColumns = `id, location_id, product_id, quantity, created_at, updated_at`

// LocationStockRepo implementación del puerto LocationStockRepository (pool o tx).
type LocationStockRepo struct {
	q Querier
}

// NewLocationStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationStockRepository(q Querier) *LocationStockRepo {
	return &LocationStockRepo{q: q}
}

// Get lee el stock agregado sin bloquear; nil si no existe.
func (r *LocationStockRepo) Get(ctx context.Context, locationID, productID string) (*entity.LocationStock, error) {
	query := `SELECT ` + locationStockColumns + ` FROM location_stock WHERE location_id = $1 AND product_id = $2`
	return r.getOne(ctx, query, locationID, productID)
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE); nil si no existe.
func (r *LocationStockRepo) GetForUpdate(ctx context.Context, locationID, productID string) (*entity.LocationStock, error) {
	query := `SELECT ` + locationStockColumns + ` FROM location_stock WHERE location_id = $1 AND product_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, locationID, productID)
}

// GetOrCreateForUpdate inserta la fila en cero si falta (ON CONFLICT DO NOTHING) y luego la bloquea.
// Dos llegadas concurrentes al mismo destino quedan serializadas sobre la misma fila.
func (r *LocationStockRepo) GetOrCreateForUpdate(ctx context.Context, locationID, productID string) (*entity.LocationStock, error) {
	insert := `
		INSERT INTO location_stock (id, location_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (location_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, uuid.New().String(), locationID, productID); err != nil {
		return nil, fmt.Errorf("insert location stock: %w", err)
	}
	s, err := r.GetForUpdate(ctx, locationID, productID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("location stock %s/%s: %w", locationID, productID, domain.ErrNotFound)
	}
	return s, nil
}

// GetByIDForUpdate bloquea la fila por ID (restaurar asignaciones de un despacho).
func (r *LocationStockRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.LocationStock, error) {
	query := `SELECT ` + locationStockColumns + ` FROM location_stock WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *LocationStockRepo) getOne(ctx context.Context, query string, args ...any) (*entity.LocationStock, error) {
	var s entity.LocationStock
	err := r.q.QueryRow(ctx, query, args...).Scan(&s.ID, &s.LocationID, &s.ProductID, &s.Quantity, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location stock: %w", err)
	}
	return &s, nil
}

// UpdateQuantity fija la cantidad; la tabla rechaza valores negativos (CHECK).
func (r *LocationStockRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	query := `UPDATE location_stock SET quantity = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("update location stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasPositiveForProduct indica si alguna ubicación tiene stock recibido positivo del producto.
func (r *LocationStockRepo) HasPositiveForProduct(ctx context.Context, productID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM location_stock WHERE product_id = $1 AND quantity > 0)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check location stock: %w", err)
	}
	return exists, nil
}
