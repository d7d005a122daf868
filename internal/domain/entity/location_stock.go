package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationStock inventario agregado de un producto en una ubicación destino (único por ubicación+producto).
// Solo se incrementa cuando un traslado llega a COMPLETED.
type LocationStock struct {
	ID         string
	LocationID string
	ProductID  string
	Quantity   decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
