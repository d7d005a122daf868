package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Category categoría de un tipo de ajuste según el signo que impone.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryDecrease
	CategoryIncrease
	CategoryBidirectional
)

var categories = map[entity.AdjustmentType]Category{
	entity.AdjustmentTheft:         CategoryDecrease,
	entity.AdjustmentDamage:        CategoryDecrease,
	entity.AdjustmentExpired:       CategoryDecrease,
	entity.AdjustmentLoss:          CategoryDecrease,
	entity.AdjustmentSpoilage:      CategoryDecrease,
	entity.AdjustmentWriteOff:      CategoryDecrease,
	entity.AdjustmentTransferOut:   CategoryDecrease,
	entity.AdjustmentFound:         CategoryIncrease,
	entity.AdjustmentReturnToStock: CategoryIncrease,
	entity.AdjustmentTransferIn:    CategoryIncrease,
	entity.AdjustmentCorrection:    CategoryBidirectional,
	entity.AdjustmentCycleCount:    CategoryBidirectional,
}

// highRisk tipos que siempre requieren aprobación explícita.
var highRisk = map[entity.AdjustmentType]bool{
	entity.AdjustmentTheft:    true,
	entity.AdjustmentLoss:     true,
	entity.AdjustmentWriteOff: true,
}

// CategoryOf devuelve la categoría del tipo; CategoryUnknown si el tipo no existe.
func CategoryOf(t entity.AdjustmentType) Category {
	return categories[t]
}

// NormalizeSign fuerza el signo de la cantidad según la categoría del tipo:
// disminuciones negativas, aumentos positivos, bidireccionales sin cambio.
func NormalizeSign(t entity.AdjustmentType, qty decimal.Decimal) decimal.Decimal {
	switch CategoryOf(t) {
	case CategoryDecrease:
		return qty.Abs().Neg()
	case CategoryIncrease:
		return qty.Abs()
	default:
		return qty
	}
}

// RequiresApproval decide si el ajuste requiere aprobación: tipo de alto riesgo o costo total
// por encima del umbral (umbral cero = sin límite por costo).
func RequiresApproval(t entity.AdjustmentType, totalCost, threshold decimal.Decimal) bool {
	if highRisk[t] {
		return true
	}
	return threshold.GreaterThan(decimal.Zero) && totalCost.GreaterThan(threshold)
}
