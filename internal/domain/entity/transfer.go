package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado de la máquina de estados del traslado.
type TransferStatus string

const (
	TransferDraft     TransferStatus = "DRAFT"
	TransferRequested TransferStatus = "REQUESTED"
	TransferApproved  TransferStatus = "APPROVED"
	TransferInTransit TransferStatus = "IN_TRANSIT"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferRejected  TransferStatus = "REJECTED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// IsTerminal indica si el estado es final (COMPLETED, REJECTED o CANCELLED).
func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferRejected || s == TransferCancelled
}

// Acciones registradas en la bitácora del traslado.
const (
	AuditCreated    = "CREATED"
	AuditItemAdded  = "ITEM_ADDED"
	AuditSubmitted  = "SUBMITTED"
	AuditApproved   = "APPROVED"
	AuditRejected   = "REJECTED"
	AuditDispatched = "DISPATCHED"
	AuditCompleted  = "COMPLETED"
	AuditCancelled  = "CANCELLED"
)

// Transfer movimiento de stock entre dos ubicaciones de un negocio, con ítems y bitácora.
type Transfer struct {
	ID                    string
	BusinessID            string
	Reference             string
	Status                TransferStatus
	SourceLocationID      string
	DestinationLocationID string
	Notes                 string
	Items                 []*TransferLineItem
	Audit                 []*TransferAuditEntry

	CreatedBy          string
	SubmittedBy        string
	SubmittedAt        *time.Time
	ApprovedBy         string
	ApprovedAt         *time.Time
	RejectedBy         string
	RejectedAt         *time.Time
	RejectionReason    string
	DispatchedBy       string
	DispatchedAt       *time.Time
	CompletedBy        string
	CompletedAt        *time.Time
	CancelledBy        string
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RequiredByProduct suma la cantidad requerida de los ítems agrupada por producto.
func (t *Transfer) RequiredByProduct() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.Items))
	for _, it := range t.Items {
		out[it.ProductID] = out[it.ProductID].Add(it.RequiredQuantity())
	}
	return out
}

// TransferLineItem ítem del traslado: cantidades solicitada, aprobada y despachada.
type TransferLineItem struct {
	ID                string
	TransferID        string
	ProductID         string
	RequestedQuantity decimal.Decimal
	ApprovedQuantity  *decimal.Decimal
	FulfilledQuantity *decimal.Decimal
	UnitCost          decimal.Decimal // promedio ponderado de las entradas consumidas al despachar
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RequiredQuantity gana el valor más específico no nulo: despachada > aprobada > solicitada.
func (i *TransferLineItem) RequiredQuantity() decimal.Decimal {
	switch {
	case i.FulfilledQuantity != nil:
		return *i.FulfilledQuantity
	case i.ApprovedQuantity != nil:
		return *i.ApprovedQuantity
	default:
		return i.RequestedQuantity
	}
}

// TransferAuditEntry entrada de bitácora: solo se agrega, nunca se modifica ni elimina.
type TransferAuditEntry struct {
	ID         string
	TransferID string
	Action     string
	FromStatus TransferStatus
	ToStatus   TransferStatus
	Actor      string
	Remarks    string
	CreatedAt  time.Time
}

// Origen de una asignación de despacho.
const (
	AllocationSourceBatch         = "BATCH"
	AllocationSourceLocationStock = "LOCATION_STOCK"
)

// TransferAllocation registra de qué entrada de inventario salió cada unidad despachada,
// para restaurarla exactamente si el traslado se cancela en tránsito.
type TransferAllocation struct {
	ID              string
	TransferID      string
	LineItemID      string
	SourceKind      string
	BatchID         string // SourceKind == BATCH
	LocationStockID string // SourceKind == LOCATION_STOCK
	AdjustmentID    string // TRANSFER_OUT generado para lotes
	Quantity        decimal.Decimal
	CreatedAt       time.Time
	RestoredAt      *time.Time
}
