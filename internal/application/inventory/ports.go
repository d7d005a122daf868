package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repositories repositorios del ledger; dentro de TxRunner.Run quedan atados a la misma transacción.
type Repositories struct {
	Batches       repository.BatchRepository
	Adjustments   repository.AdjustmentRepository
	Transfers     repository.TransferRepository
	LocationStock repository.LocationStockRepository
	Locations     repository.LocationRepository
	Products      repository.ProductRepository
	Sales         repository.SalesLedger
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error se hace rollback de todas las filas tocadas; nada parcial es observable.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
