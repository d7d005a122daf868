package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleFact cantidad vendida (venta completada) de un lote, provista por el subsistema de ventas.
type SaleFact struct {
	SaleItemID  string
	BatchID     string
	ProductID   string
	Quantity    decimal.Decimal
	CompletedAt time.Time
}

// RefundFact cantidad reembolsada (procesada) de un ítem de venta, provista por el subsistema de reembolsos.
type RefundFact struct {
	RefundItemID string
	SaleItemID   string
	BatchID      string
	Quantity     decimal.Decimal
	ProcessedAt  time.Time
}
