package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// Reglas de consistencia (etiqueta de métrica).
const (
	RuleIntakeFrozen        = "intake_frozen"
	RuleWouldGoNegative     = "would_go_negative"
	RuleTransferFulfillment = "transfer_fulfillment"
)

// ConsistencyGuard validaciones previas a la escritura. Fallan cerradas y nunca corrigen datos.
type ConsistencyGuard struct {
	metrics *metrics.LedgerMetrics
}

// NewConsistencyGuard construye el guard; m puede ser nil.
func NewConsistencyGuard(m *metrics.LedgerMetrics) *ConsistencyGuard {
	return &ConsistencyGuard{metrics: m}
}

// CheckIntakeEdit rechaza modificar la cantidad de ingreso si el lote ya tiene un ajuste completado,
// si existe stock agregado positivo de su producto o si tiene ventas completadas.
func (g *ConsistencyGuard) CheckIntakeEdit(ctx context.Context, repos Repositories, batch *entity.IntakeBatch) error {
	adjs, err := repos.Adjustments.CountCompletedByBatch(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("contar ajustes: %w", err)
	}
	if adjs > 0 {
		return g.frozen(batch, "el lote tiene ajustes completados")
	}
	positive, err := repos.LocationStock.HasPositiveForProduct(ctx, batch.ProductID)
	if err != nil {
		return fmt.Errorf("stock por ubicación: %w", err)
	}
	if positive {
		return g.frozen(batch, "el producto ya tiene stock recibido por traslado")
	}
	sales, err := repos.Sales.CountCompletedSales(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("contar ventas: %w", err)
	}
	if sales > 0 {
		return g.frozen(batch, "el lote tiene ventas completadas")
	}
	return nil
}

func (g *ConsistencyGuard) frozen(batch *entity.IntakeBatch, reason string) error {
	g.metrics.GuardRejection(RuleIntakeFrozen)
	ve := domain.NewValidationError(domain.ErrIntakeFrozen, "no se puede modificar la cantidad de ingreso: %s", reason)
	ve.Details = map[string]string{"batch_id": batch.ID}
	return ve
}

// CheckAdjustmentCompletion calcula la disponibilidad del lote sin el ajuste y rechaza un delta negativo
// que la deje por debajo de cero. Devuelve la disponibilidad previa.
func (g *ConsistencyGuard) CheckAdjustmentCompletion(ctx context.Context, repos Repositories, adj *entity.Adjustment, batch *entity.IntakeBatch) (inventory.Availability, error) {
	avail, err := batchAvailability(ctx, repos, batch, adj.ID)
	if err != nil {
		return inventory.Availability{}, err
	}
	delta := adj.Quantity
	if adj.ExcludedFromAvailability {
		delta = decimal.Zero
	}
	result := avail.Apply(delta)
	if delta.IsNegative() && result.IsNegative() {
		g.metrics.GuardRejection(RuleWouldGoNegative)
		ve := domain.NewQuantityError(domain.ErrWouldGoNegative,
			"completar el ajuste dejaría la disponibilidad del lote en negativo", avail.Available, delta, result)
		ve.Details = map[string]string{"batch_id": batch.ID, "adjustment_id": adj.ID}
		return avail, ve
	}
	return avail, nil
}

// AvailableFunc devuelve la cantidad disponible de un producto para el traslado que se valida.
type AvailableFunc func(ctx context.Context, productID string) (decimal.Decimal, error)

// CheckTransferFulfillment rechaza el traslado si lo requerido de algún producto excede lo disponible.
// Los productos se validan en orden de ID.
func (g *ConsistencyGuard) CheckTransferFulfillment(ctx context.Context, required map[string]decimal.Decimal, available AvailableFunc) error {
	for _, productID := range sortedKeys(required) {
		need := required[productID]
		have, err := available(ctx, productID)
		if err != nil {
			return err
		}
		if need.GreaterThan(have) {
			g.metrics.GuardRejection(RuleTransferFulfillment)
			ve := domain.NewQuantityError(domain.ErrInsufficientStock,
				fmt.Sprintf("stock insuficiente para el producto %s", productID), have, need.Neg(), have.Sub(need))
			ve.Details = map[string]string{"product_id": productID}
			return ve
		}
	}
	return nil
}
