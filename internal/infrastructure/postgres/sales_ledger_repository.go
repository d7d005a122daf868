package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SalesLedger = (*SalesLedgerRepo)(nil)

// SalesLedgerRepo lectura de ventas completadas y reembolsos procesados (tablas del subsistema de ventas).
type SalesLedgerRepo struct {
	q Querier
}

// NewSalesLedgerRepository construye el adaptador de solo lectura.
func NewSalesLedgerRepository(q Querier) *SalesLedgerRepo {
	return &SalesLedgerRepo{q: q}
}

// SumCompletedSales cantidad vendida de un lote.
func (r *SalesLedgerRepo) SumCompletedSales(ctx context.Context, batchID string) (decimal.Decimal, error) {
	return r.SumCompletedSalesForBatches(ctx, []string{batchID})
}

// CountCompletedSales ventas completadas que referencian el lote.
func (r *SalesLedgerRepo) CountCompletedSales(ctx context.Context, batchID string) (int, error) {
	query := `SELECT COUNT(*) FROM sale_items WHERE batch_id = $1 AND status = 'COMPLETED'`
	var n int
	if err := r.q.QueryRow(ctx, query, batchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

// SumCompletedSalesForBatches cantidad vendida del conjunto de lotes.
func (r *SalesLedgerRepo) SumCompletedSalesForBatches(ctx context.Context, batchIDs []string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM sale_items
		WHERE batch_id = ANY($1::uuid[]) AND status = 'COMPLETED'`
	return r.sum(ctx, "sum sales", query, batchIDs)
}

// SumProcessedRefundsForBatches cantidad reembolsada de ventas de esos lotes.
func (r *SalesLedgerRepo) SumProcessedRefundsForBatches(ctx context.Context, batchIDs []string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(f.quantity), 0)
		FROM refund_items f
		JOIN sale_items s ON s.id = f.sale_item_id
		WHERE s.batch_id = ANY($1::uuid[]) AND f.status = 'PROCESSED'`
	return r.sum(ctx, "sum refunds", query, batchIDs)
}

func (r *SalesLedgerRepo) sum(ctx context.Context, op, query string, batchIDs []string) (decimal.Decimal, error) {
	if len(batchIDs) == 0 {
		return decimal.Zero, nil
	}
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, batchIDs).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
