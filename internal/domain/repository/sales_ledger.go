package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// SalesLedger puerto de solo lectura sobre los hechos de ventas completadas y reembolsos procesados.
type SalesLedger interface {
	SumCompletedSales(ctx context.Context, batchID string) (decimal.Decimal, error)
	CountCompletedSales(ctx context.Context, batchID string) (int, error)
	SumCompletedSalesForBatches(ctx context.Context, batchIDs []string) (decimal.Decimal, error)
	SumProcessedRefundsForBatches(ctx context.Context, batchIDs []string) (decimal.Decimal, error)
}
