package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// batchAvailability calcula la disponibilidad del lote a partir del ledger.
func batchAvailability(ctx context.Context, repos Repositories, batch *entity.IntakeBatch, excludeAdjustmentID string) (inventory.Availability, error) {
	adjs, err := repos.Adjustments.ListCompletedByBatch(ctx, batch.ID)
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("ajustes del lote %s: %w", batch.ID, err)
	}
	sold, err := repos.Sales.SumCompletedSales(ctx, batch.ID)
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("ventas del lote %s: %w", batch.ID, err)
	}
	return inventory.ComputeAvailability(batch.Quantity, adjs, excludeAdjustmentID, sold), nil
}

// sourceStock entradas consumibles de un producto en una ubicación: sus lotes y la fila agregada.
type sourceStock struct {
	productID string
	entries   []inventory.Entry
	batches   map[string]*entity.IntakeBatch
	stock     *entity.LocationStock
}

func (s *sourceStock) onHand() decimal.Decimal {
	return inventory.TotalOnHand(s.entries)
}

// consume descuenta lo tomado de las entradas locales para asignaciones posteriores del mismo producto.
func (s *sourceStock) consume(takes []inventory.Take) {
	for _, t := range takes {
		for i := range s.entries {
			if s.entries[i].Kind == t.Entry.Kind && s.entries[i].ID == t.Entry.ID {
				s.entries[i].OnHand = s.entries[i].OnHand.Sub(t.Quantity)
			}
		}
	}
}

// loadSourceStock carga lotes y stock agregado; con forUpdate bloquea lotes (orden de ID) y luego la fila agregada.
func loadSourceStock(ctx context.Context, repos Repositories, locationID, productID string, forUpdate bool) (*sourceStock, error) {
	var (
		batches []*entity.IntakeBatch
		stock   *entity.LocationStock
		err     error
	)
	if forUpdate {
		batches, err = repos.Batches.ListForUpdateByLocationProduct(ctx, locationID, productID)
	} else {
		batches, err = repos.Batches.ListByLocationProduct(ctx, locationID, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("lotes de %s en %s: %w", productID, locationID, err)
	}
	if forUpdate {
		stock, err = repos.LocationStock.GetForUpdate(ctx, locationID, productID)
	} else {
		stock, err = repos.LocationStock.Get(ctx, locationID, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("stock de %s en %s: %w", productID, locationID, err)
	}

	src := &sourceStock{productID: productID, batches: make(map[string]*entity.IntakeBatch, len(batches)), stock: stock}
	for _, b := range batches {
		avail, err := batchAvailability(ctx, repos, b, "")
		if err != nil {
			return nil, err
		}
		src.batches[b.ID] = b
		src.entries = append(src.entries, inventory.Entry{
			Kind:       entity.AllocationSourceBatch,
			ID:         b.ID,
			OnHand:     avail.Available,
			UnitCost:   b.LandedUnitCost(),
			ReceivedAt: b.ReceivedAt,
			ExpiresAt:  b.ExpiresAt,
		})
	}
	if stock != nil {
		src.entries = append(src.entries, inventory.Entry{
			Kind:       entity.AllocationSourceLocationStock,
			ID:         stock.ID,
			OnHand:     stock.Quantity,
			ReceivedAt: stock.CreatedAt,
		})
	}
	return src, nil
}

// availableAt disponible en la ubicación menos lo reservado por otros traslados REQUESTED/APPROVED.
func availableAt(ctx context.Context, repos Repositories, src *sourceStock, locationID, excludeTransferID string) (decimal.Decimal, error) {
	reserved, err := repos.Transfers.ReservedQuantity(ctx, locationID, src.productID, excludeTransferID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reservas de %s: %w", src.productID, err)
	}
	return src.onHand().Sub(reserved), nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, d)
}

// newReference genera PREFIJO-YYYYMMDD-XXXXXXXX.
func newReference(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), suffix)
}
