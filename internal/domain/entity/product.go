package entity

import "time"

// Product producto o SKU de un negocio.
type Product struct {
	ID         string
	BusinessID string
	SKU        string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
