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

var _ repository.TransferRepository = (*TransferRepo)(nil)

const transferColumns = `id, business_id, reference, status, source_location_id, destination_location_id, notes,
	created_by, submitted_by, submitted_at, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	dispatched_by, dispatched_at, completed_by, completed_at, cancelled_by, cancelled_at, cancellation_reason,
	created_at, updated_at`

const lineItemColumns = `id, transfer_id, product_id, requested_quantity, approved_quantity, fulfilled_quantity,
	unit_cost, created_at, updated_at`

const allocationColumns = `id, transfer_id, line_item_id, source_kind, COALESCE(batch_id::text, ''),
	COALESCE(location_stock_id::text, ''), COALESCE(adjustment_id::text, ''), quantity, created_at, restored_at`

// TransferRepo implementación del puerto TransferRepository sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste la cabecera del traslado; ítems y bitácora se agregan aparte.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.BusinessID, t.Reference, t.Status, t.SourceLocationID, t.DestinationLocationID, t.Notes,
		t.CreatedBy, t.SubmittedBy, t.SubmittedAt, t.ApprovedBy, t.ApprovedAt, t.RejectedBy, t.RejectedAt, t.RejectionReason,
		t.DispatchedBy, t.DispatchedAt, t.CompletedBy, t.CompletedAt, t.CancelledBy, t.CancelledAt, t.CancellationReason,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID carga el traslado con ítems y bitácora; nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.load(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; ítems y bitácora se leen dentro de la misma tx.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.load(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) load(ctx context.Context, query, id string) (*entity.Transfer, error) {
	var t entity.Transfer
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.BusinessID, &t.Reference, &t.Status, &t.SourceLocationID, &t.DestinationLocationID, &t.Notes,
		&t.CreatedBy, &t.SubmittedBy, &t.SubmittedAt, &t.ApprovedBy, &t.ApprovedAt, &t.RejectedBy, &t.RejectedAt, &t.RejectionReason,
		&t.DispatchedBy, &t.DispatchedAt, &t.CompletedBy, &t.CompletedAt, &t.CancelledBy, &t.CancelledAt, &t.CancellationReason,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if t.Items, err = r.listItems(ctx, t.ID); err != nil {
		return nil, err
	}
	if t.Audit, err = r.listAudit(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update persiste estado, actores, marcas de tiempo y motivos.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET
			status = $2, notes = $3,
			submitted_by = $4, submitted_at = $5, approved_by = $6, approved_at = $7,
			rejected_by = $8, rejected_at = $9, rejection_reason = $10,
			dispatched_by = $11, dispatched_at = $12, completed_by = $13, completed_at = $14,
			cancelled_by = $15, cancelled_at = $16, cancellation_reason = $17, updated_at = $18
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Status, t.Notes,
		t.SubmittedBy, t.SubmittedAt, t.ApprovedBy, t.ApprovedAt,
		t.RejectedBy, t.RejectedAt, t.RejectionReason,
		t.DispatchedBy, t.DispatchedAt, t.CompletedBy, t.CompletedAt,
		t.CancelledBy, t.CancelledAt, t.CancellationReason, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ActiveReferenceExists indica si otro traslado no terminal usa la referencia.
func (r *TransferRepo) ActiveReferenceExists(ctx context.Context, reference, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transfers
			WHERE reference = $1 AND id::text <> $2
			  AND status NOT IN ('COMPLETED', 'REJECTED', 'CANCELLED')
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, reference, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check transfer reference: %w", err)
	}
	return exists, nil
}

// AddLineItem persiste un ítem del traslado.
func (r *TransferRepo) AddLineItem(ctx context.Context, it *entity.TransferLineItem) error {
	query := `INSERT INTO transfer_line_items (` + lineItemColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.TransferID, it.ProductID, it.RequestedQuantity, it.ApprovedQuantity, it.FulfilledQuantity,
		it.UnitCost, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer line item: %w", err)
	}
	return nil
}

// UpdateLineItem persiste cantidades aprobada/despachada y costo unitario.
func (r *TransferRepo) UpdateLineItem(ctx context.Context, it *entity.TransferLineItem) error {
	query := `
		UPDATE transfer_line_items SET approved_quantity = $2, fulfilled_quantity = $3, unit_cost = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, it.ID, it.ApprovedQuantity, it.FulfilledQuantity, it.UnitCost, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transfer line item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TransferRepo) listItems(ctx context.Context, transferID string) ([]*entity.TransferLineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM transfer_line_items WHERE transfer_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer line items: %w", err)
	}
	defer rows.Close()
	var out []*entity.TransferLineItem
	for rows.Next() {
		var it entity.TransferLineItem
		if err := rows.Scan(
			&it.ID, &it.TransferID, &it.ProductID, &it.RequestedQuantity, &it.ApprovedQuantity, &it.FulfilledQuantity,
			&it.UnitCost, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer line item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// AppendAudit agrega una entrada a la bitácora. La tabla rechaza UPDATE y DELETE con un trigger.
func (r *TransferRepo) AppendAudit(ctx context.Context, e *entity.TransferAuditEntry) error {
	query := `
		INSERT INTO transfer_audit_entries (id, transfer_id, action, from_status, to_status, actor, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, e.ID, e.TransferID, e.Action, e.FromStatus, e.ToStatus, e.Actor, e.Remarks, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer audit: %w", err)
	}
	return nil
}

func (r *TransferRepo) listAudit(ctx context.Context, transferID string) ([]*entity.TransferAuditEntry, error) {
	query := `
		SELECT id, transfer_id, action, from_status, to_status, actor, remarks, created_at
		FROM transfer_audit_entries WHERE transfer_id = $1 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer audit: %w", err)
	}
	defer rows.Close()
	var out []*entity.TransferAuditEntry
	for rows.Next() {
		var e entity.TransferAuditEntry
		if err := rows.Scan(&e.ID, &e.TransferID, &e.Action, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Remarks, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer audit: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ReservedQuantity suma lo requerido por traslados REQUESTED/APPROVED desde el mismo origen.
func (r *TransferRepo) ReservedQuantity(ctx context.Context, sourceLocationID, productID, excludeTransferID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(COALESCE(i.fulfilled_quantity, i.approved_quantity, i.requested_quantity)), 0)
		FROM transfer_line_items i
		JOIN transfers t ON t.id = i.transfer_id
		WHERE t.source_location_id = $1 AND i.product_id = $2 AND t.id::text <> $3
		  AND t.status IN ('REQUESTED', 'APPROVED')`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, sourceLocationID, productID, excludeTransferID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum reserved quantity: %w", err)
	}
	return total, nil
}

// AddAllocation registra el origen de unidades despachadas.
func (r *TransferRepo) AddAllocation(ctx context.Context, a *entity.TransferAllocation) error {
	query := `
		INSERT INTO transfer_allocations
			(id, transfer_id, line_item_id, source_kind, batch_id, location_stock_id, adjustment_id, quantity, created_at, restored_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, NULLIF($7, '')::uuid, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TransferID, a.LineItemID, a.SourceKind, a.BatchID, a.LocationStockID, a.AdjustmentID,
		a.Quantity, a.CreatedAt, a.RestoredAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer allocation: %w", err)
	}
	return nil
}

// ListOpenAllocations asignaciones aún no restauradas, en el orden en que se despacharon.
func (r *TransferRepo) ListOpenAllocations(ctx context.Context, transferID string) ([]*entity.TransferAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM transfer_allocations
		WHERE transfer_id = $1 AND restored_at IS NULL ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer allocations: %w", err)
	}
	defer rows.Close()
	var out []*entity.TransferAllocation
	for rows.Next() {
		var a entity.TransferAllocation
		if err := rows.Scan(
			&a.ID, &a.TransferID, &a.LineItemID, &a.SourceKind, &a.BatchID,
			&a.LocationStockID, &a.AdjustmentID, &a.Quantity, &a.CreatedAt, &a.RestoredAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer allocation: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// MarkAllocationRestored fija restored_at; una asignación solo se restaura una vez.
func (r *TransferRepo) MarkAllocationRestored(ctx context.Context, a *entity.TransferAllocation) error {
	query := `UPDATE transfer_allocations SET restored_at = $2 WHERE id = $1 AND restored_at IS NULL`
	tag, err := r.q.Exec(ctx, query, a.ID, a.RestoredAt)
	if err != nil {
		return fmt.Errorf("restore transfer allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}
