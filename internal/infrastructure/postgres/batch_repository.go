package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, business_id, location_id, product_id, supplier_id, quantity, unit_cost, unit_tax,
	additional_cost, calculated_quantity, retail_price, wholesale_price, expires_at, represents_transfer,
	received_at, created_at, updated_at`

// BatchRepo implementación del puerto BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de persistencia para lotes de ingreso.
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un nuevo lote.
func (r *BatchRepo) Create(ctx context.Context, b *entity.IntakeBatch) error {
	query := `
		INSERT INTO intake_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.BusinessID, b.LocationID, b.ProductID, b.SupplierID, b.Quantity, b.UnitCost, b.UnitTax,
		b.AdditionalCost, b.CalculatedQuantity, b.RetailPrice, b.WholesalePrice, b.ExpiresAt, b.RepresentsTransfer,
		b.ReceivedAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert intake batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID; nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.IntakeBatch, error) {
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM intake_batches WHERE id = $1`, id)
}

// GetForUpdate obtiene y bloquea el lote.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.IntakeBatch, error) {
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM intake_batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepo) getOne(ctx context.Context, query, id string) (*entity.IntakeBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get intake batch: %w", err)
	}
	return b, nil
}

// ListByLocationProduct lotes de un producto en una ubicación.
func (r *BatchRepo) ListByLocationProduct(ctx context.Context, locationID, productID string) ([]*entity.IntakeBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM intake_batches
		WHERE location_id = $1 AND product_id = $2 ORDER BY received_at, id`
	return r.list(ctx, query, locationID, productID)
}

// ListForUpdateByLocationProduct bloquea los lotes en orden de ID (orden de lock estable entre transacciones).
func (r *BatchRepo) ListForUpdateByLocationProduct(ctx context.Context, locationID, productID string) ([]*entity.IntakeBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM intake_batches
		WHERE location_id = $1 AND product_id = $2 ORDER BY id FOR UPDATE`
	return r.list(ctx, query, locationID, productID)
}

// ListByProduct lotes de un producto en todas las ubicaciones del negocio.
func (r *BatchRepo) ListByProduct(ctx context.Context, businessID, productID string) ([]*entity.IntakeBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM intake_batches
		WHERE business_id = $1 AND product_id = $2 ORDER BY received_at, id`
	return r.list(ctx, query, businessID, productID)
}

// ListForUpdateByProduct bloquea todos los lotes del grupo de reconciliación.
func (r *BatchRepo) ListForUpdateByProduct(ctx context.Context, businessID, productID string) ([]*entity.IntakeBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM intake_batches
		WHERE business_id = $1 AND product_id = $2 ORDER BY id FOR UPDATE`
	return r.list(ctx, query, businessID, productID)
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]*entity.IntakeBatch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list intake batches: %w", err)
	}
	defer rows.Close()
	var out []*entity.IntakeBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intake batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListProductGroups pares (negocio, producto) con al menos un lote. businessID vacío lista todos.
func (r *BatchRepo) ListProductGroups(ctx context.Context, businessID string) ([]repository.ProductGroup, error) {
	query := `
		SELECT DISTINCT business_id, product_id FROM intake_batches
		WHERE $1 = '' OR business_id::text = $1
		ORDER BY business_id, product_id`
	rows, err := r.q.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list product groups: %w", err)
	}
	defer rows.Close()
	var out []repository.ProductGroup
	for rows.Next() {
		var g repository.ProductGroup
		if err := rows.Scan(&g.BusinessID, &g.ProductID); err != nil {
			return nil, fmt.Errorf("scan product group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateIntakeQuantity corrige la cantidad de ingreso y la calculada en un solo UPDATE.
func (r *BatchRepo) UpdateIntakeQuantity(ctx context.Context, id string, quantity, calculated decimal.Decimal) error {
	query := `UPDATE intake_batches SET quantity = $2, calculated_quantity = $3, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update intake quantity", query, id, quantity, calculated)
}

// UpdateCalculatedQuantity persiste la cantidad de trabajo derivada.
func (r *BatchRepo) UpdateCalculatedQuantity(ctx context.Context, id string, calculated decimal.Decimal) error {
	query := `UPDATE intake_batches SET calculated_quantity = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update calculated quantity", query, id, calculated)
}

func (r *BatchRepo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBatch(row pgx.Row) (*entity.IntakeBatch, error) {
	var b entity.IntakeBatch
	err := row.Scan(
		&b.ID, &b.BusinessID, &b.LocationID, &b.ProductID, &b.SupplierID, &b.Quantity, &b.UnitCost, &b.UnitTax,
		&b.AdditionalCost, &b.CalculatedQuantity, &b.RetailPrice, &b.WholesalePrice, &b.ExpiresAt, &b.RepresentsTransfer,
		&b.ReceivedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
