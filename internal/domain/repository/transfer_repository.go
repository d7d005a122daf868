package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para traslados, ítems, bitácora y asignaciones.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.Transfer) error
	// GetByID carga el traslado con ítems y bitácora.
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// GetForUpdate bloquea la fila del traslado y carga ítems y bitácora.
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	// Update persiste estado, actores, marcas de tiempo y motivos.
	Update(ctx context.Context, transfer *entity.Transfer) error
	// ActiveReferenceExists indica si otra transferencia no terminal usa la referencia.
	ActiveReferenceExists(ctx context.Context, reference, excludeID string) (bool, error)

	AddLineItem(ctx context.Context, item *entity.TransferLineItem) error
	UpdateLineItem(ctx context.Context, item *entity.TransferLineItem) error
	// AppendAudit agrega una entrada a la bitácora; no hay operación de modificación ni borrado.
	AppendAudit(ctx context.Context, entry *entity.TransferAuditEntry) error

	// ReservedQuantity suma lo requerido por traslados REQUESTED/APPROVED con el mismo origen y producto.
	ReservedQuantity(ctx context.Context, sourceLocationID, productID, excludeTransferID string) (decimal.Decimal, error)

	AddAllocation(ctx context.Context, alloc *entity.TransferAllocation) error
	ListOpenAllocations(ctx context.Context, transferID string) ([]*entity.TransferAllocation, error)
	MarkAllocationRestored(ctx context.Context, alloc *entity.TransferAllocation) error
}
