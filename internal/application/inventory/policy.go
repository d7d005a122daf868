package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// Políticas de cascada al aprobar un ajuste que comparte referencia con su pata hermana.
const (
	PairedApprovalNone     = "none"
	PairedApprovalApprove  = "approve"
	PairedApprovalComplete = "complete"
)

// Policy parámetros de negocio del ledger.
type Policy struct {
	Order                 inventory.Comparator
	PairedApproval        string
	ApprovalCostThreshold decimal.Decimal
	// Now reloj inyectable; time.Now si es nil.
	Now func() time.Time
}

// NewPolicy construye la política desde los valores de configuración.
func NewPolicy(order, pairedApproval string, costThreshold decimal.Decimal) (Policy, error) {
	cmp, err := inventory.ComparatorByName(order)
	if err != nil {
		return Policy{}, err
	}
	switch pairedApproval {
	case "":
		pairedApproval = PairedApprovalNone
	case PairedApprovalNone, PairedApprovalApprove, PairedApprovalComplete:
	default:
		return Policy{}, fmt.Errorf("política de aprobación pareada desconocida: %q", pairedApproval)
	}
	return Policy{Order: cmp, PairedApproval: pairedApproval, ApprovalCostThreshold: costThreshold}, nil
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// Deps dependencias compartidas por los casos de uso del ledger.
// Repos son los repositorios fuera de transacción (lecturas); las escrituras pasan por Tx.
type Deps struct {
	Tx      TxRunner
	Repos   Repositories
	Policy  Policy
	Log     *logger.Logger
	Metrics *metrics.LedgerMetrics
}

func (d Deps) log() *logger.Logger {
	if d.Log == nil {
		return logger.Discard()
	}
	return d.Log
}
