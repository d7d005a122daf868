package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout > 0 limita la espera por row locks.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Deadlocks y lock timeouts se devuelven como *domain.TransactionError.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapTxStep("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return wrapTxStep("set lock_timeout", err)
		}
	}

	if err := fn(NewRepositories(tx)); err != nil {
		return classifyTxError("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapTxStep("commit transaction", err)
	}
	return nil
}
