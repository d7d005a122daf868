package entity

import "time"

// Tipos de ubicación. Cada ubicación es bodega o tienda, nunca ambas.
const (
	LocationKindWarehouse  = "WAREHOUSE"
	LocationKindStorefront = "STOREFRONT"
)

// Location bodega o tienda de un negocio (multi-ubicación).
type Location struct {
	ID         string
	BusinessID string
	Name       string
	Kind       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidKind indica si el tipo es exactamente WAREHOUSE o STOREFRONT.
func (l *Location) ValidKind() bool {
	return l.Kind == LocationKindWarehouse || l.Kind == LocationKindStorefront
}
