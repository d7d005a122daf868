package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, batch_id, type, quantity, quantity_before, unit_cost, total_cost, reason, status,
	requires_approval, reference_number, excluded_from_availability, created_by, approved_by, approved_at,
	rejected_by, rejected_at, rejection_reason, completed_by, completed_at, created_at, updated_at`

// AdjustmentRepo implementación del puerto AdjustmentRepository sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste un ajuste. quantity y batch_id no vuelven a escribirse después.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	query := `
		INSERT INTO stock_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.BatchID, a.Type, a.Quantity, a.QuantityBefore, a.UnitCost, a.TotalCost, a.Reason, a.Status,
		a.RequiresApproval, a.ReferenceNumber, a.ExcludedFromAvailability, a.CreatedBy, a.ApprovedBy, a.ApprovedAt,
		a.RejectedBy, a.RejectedAt, a.RejectionReason, a.CompletedBy, a.CompletedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste; nil si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1`, id)
}

// GetForUpdate obtiene y bloquea el ajuste.
func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AdjustmentRepo) getOne(ctx context.Context, query, id string) (*entity.Adjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return a, nil
}

// Update persiste estado, actores y marcas de tiempo.
func (r *AdjustmentRepo) Update(ctx context.Context, a *entity.Adjustment) error {
	query := `
		UPDATE stock_adjustments SET
			status = $2, unit_cost = $3, total_cost = $4, excluded_from_availability = $5,
			approved_by = $6, approved_at = $7, rejected_by = $8, rejected_at = $9, rejection_reason = $10,
			completed_by = $11, completed_at = $12, updated_at = $13
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		a.ID, a.Status, a.UnitCost, a.TotalCost, a.ExcludedFromAvailability,
		a.ApprovedBy, a.ApprovedAt, a.RejectedBy, a.RejectedAt, a.RejectionReason,
		a.CompletedBy, a.CompletedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByReference patas de un traslado pareado, la de salida primero.
func (r *AdjustmentRepo) ListByReference(ctx context.Context, reference string) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE reference_number = $1 ORDER BY quantity, id`
	return r.list(ctx, query, reference)
}

// ListCompletedByBatch ajustes completados de un lote en orden de completado.
func (r *AdjustmentRepo) ListCompletedByBatch(ctx context.Context, batchID string) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE batch_id = $1 AND status = 'COMPLETED' ORDER BY completed_at, id`
	return r.list(ctx, query, batchID)
}

// ListCompletedByBatches agrupa por lote los ajustes completados de varios lotes.
func (r *AdjustmentRepo) ListCompletedByBatches(ctx context.Context, batchIDs []string) (map[string][]*entity.Adjustment, error) {
	out := make(map[string][]*entity.Adjustment, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE batch_id = ANY($1::uuid[]) AND status = 'COMPLETED' ORDER BY completed_at, id`
	list, err := r.list(ctx, query, batchIDs)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		out[a.BatchID] = append(out[a.BatchID], a)
	}
	return out, nil
}

// CountCompletedByBatch cuántos ajustes completados referencian el lote.
func (r *AdjustmentRepo) CountCompletedByBatch(ctx context.Context, batchID string) (int, error) {
	query := `SELECT COUNT(*) FROM stock_adjustments WHERE batch_id = $1 AND status = 'COMPLETED'`
	var n int
	if err := r.q.QueryRow(ctx, query, batchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count adjustments: %w", err)
	}
	return n, nil
}

func (r *AdjustmentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Adjustment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var out []*entity.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var a entity.Adjustment
	err := row.Scan(
		&a.ID, &a.BatchID, &a.Type, &a.Quantity, &a.QuantityBefore, &a.UnitCost, &a.TotalCost, &a.Reason, &a.Status,
		&a.RequiresApproval, &a.ReferenceNumber, &a.ExcludedFromAvailability, &a.CreatedBy, &a.ApprovedBy, &a.ApprovedAt,
		&a.RejectedBy, &a.RejectedAt, &a.RejectionReason, &a.CompletedBy, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
