package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// Querier abstrae pool y tx: los repositorios funcionan igual dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// NewRepositories construye todos los repositorios del ledger sobre q (pool o tx).
func NewRepositories(q Querier) inventory.Repositories {
	return inventory.Repositories{
		Batches:       NewBatchRepository(q),
		Adjustments:   NewAdjustmentRepository(q),
		Transfers:     NewTransferRepository(q),
		LocationStock: NewLocationStockRepository(q),
		Locations:     NewLocationRepository(q),
		Products:      NewProductRepository(q),
		Sales:         NewSalesLedgerRepository(q),
	}
}
