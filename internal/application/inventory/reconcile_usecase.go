package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReconcileUseCase recalcula la cantidad calculada de los lotes a partir del ledger completo.
type ReconcileUseCase struct {
	deps    Deps
	workers int
}

// NewReconcileUseCase construye el caso de uso; workers acota los grupos procesados en paralelo.
func NewReconcileUseCase(deps Deps, workers int) *ReconcileUseCase {
	if workers < 1 {
		workers = 1
	}
	return &ReconcileUseCase{deps: deps, workers: workers}
}

// ReconcileOptions alcance de la corrida. DryRun calcula y reporta sin escribir.
type ReconcileOptions struct {
	BusinessID string
	ProductID  string
	DryRun     bool
}

// BatchDiff antes/después de un lote.
type BatchDiff struct {
	BusinessID string          `json:"business_id"`
	ProductID  string          `json:"product_id"`
	BatchID    string          `json:"batch_id"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Changed    bool            `json:"changed"`
}

// GroupFailure grupo que no se pudo reconciliar.
type GroupFailure struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// ReconcileReport resultado de la corrida. Changed y Skipped cuentan lotes; Errored cuenta grupos de producto.
type ReconcileReport struct {
	DryRun   bool                      `json:"dry_run"`
	Diffs    []BatchDiff               `json:"diffs"`
	Changed  int                       `json:"changed"`
	Skipped  int                       `json:"skipped"`
	Errored  int                       `json:"errored"`
	Failures []GroupFailure            `json:"failures,omitempty"`
	Warnings []domain.IntegrityWarning `json:"warnings,omitempty"`
}

type groupResult struct {
	diffs    []BatchDiff
	warnings []domain.IntegrityWarning
	err      error
}

// Run reconcilia los grupos (negocio, producto). En modo apply cada grupo se confirma en su propia
// transacción: la falla de un grupo se reporta y no afecta a los demás. El error devuelto agrega
// las fallas de grupo; el reporte es válido aun cuando hay error.
func (uc *ReconcileUseCase) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	if opts.BusinessID == "" {
		return nil, domain.ErrInvalidInput
	}
	started := time.Now()
	groups, err := uc.groups(ctx, opts)
	if err != nil {
		return nil, err
	}

	results := make([]groupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, group := range groups {
		g.Go(func() error {
			results[i] = uc.reconcileGroup(gctx, group, opts.DryRun)
			return nil
		})
	}
	_ = g.Wait()

	report := &ReconcileReport{DryRun: opts.DryRun, Diffs: []BatchDiff{}}
	var errs error
	for i, r := range results {
		if r.err != nil {
			report.Errored++
			report.Failures = append(report.Failures, GroupFailure{ProductID: groups[i].ProductID, Error: r.err.Error()})
			errs = multierr.Append(errs, fmt.Errorf("producto %s: %w", groups[i].ProductID, r.err))
			uc.deps.log().Error().Err(r.err).Str("product_id", groups[i].ProductID).Msg("reconciliación de grupo fallida")
			continue
		}
		for _, d := range r.diffs {
			if d.Changed {
				report.Changed++
			} else {
				report.Skipped++
			}
		}
		report.Diffs = append(report.Diffs, r.diffs...)
		for _, w := range r.warnings {
			uc.deps.Metrics.IntegrityWarning(w.Kind)
			uc.deps.log().Warn().Str("kind", w.Kind).Str("product_id", w.ProductID).Str("batch_id", w.BatchID).
				Str("amount", w.Amount.String()).Msg(w.Message)
		}
		report.Warnings = append(report.Warnings, r.warnings...)
	}

	mode := "apply"
	if opts.DryRun {
		mode = "dry_run"
	}
	uc.deps.Metrics.ReconcileRun(mode, time.Since(started), report.Changed, report.Skipped, report.Errored)
	uc.deps.log().Info().
		Str("business_id", opts.BusinessID).
		Str("mode", mode).
		Int("groups", len(groups)).
		Int("changed", report.Changed).
		Int("skipped", report.Skipped).
		Int("errored", report.Errored).
		Msg("reconciliación finalizada")
	return report, errs
}

func (uc *ReconcileUseCase) groups(ctx context.Context, opts ReconcileOptions) ([]repository.ProductGroup, error) {
	if opts.ProductID != "" {
		return []repository.ProductGroup{{BusinessID: opts.BusinessID, ProductID: opts.ProductID}}, nil
	}
	groups, err := uc.deps.Repos.Batches.ListProductGroups(ctx, opts.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("grupos de producto: %w", err)
	}
	return groups, nil
}

func (uc *ReconcileUseCase) reconcileGroup(ctx context.Context, group repository.ProductGroup, dryRun bool) groupResult {
	var res groupResult
	if dryRun {
		batches, err := uc.deps.Repos.Batches.ListByProduct(ctx, group.BusinessID, group.ProductID)
		if err != nil {
			return groupResult{err: err}
		}
		res, err = uc.plan(ctx, uc.deps.Repos, group, batches)
		if err != nil {
			return groupResult{err: err}
		}
		return res
	}
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		batches, err := repos.Batches.ListForUpdateByProduct(ctx, group.BusinessID, group.ProductID)
		if err != nil {
			return err
		}
		res, err = uc.plan(ctx, repos, group, batches)
		if err != nil {
			return err
		}
		for _, d := range res.diffs {
			if !d.Changed {
				continue
			}
			if err := repos.Batches.UpdateCalculatedQuantity(ctx, d.BatchID, d.After); err != nil {
				return fmt.Errorf("lote %s: %w", d.BatchID, err)
			}
		}
		return nil
	})
	if err != nil {
		return groupResult{err: err}
	}
	return res
}

// plan calcula la distribución del grupo sin escribir.
func (uc *ReconcileUseCase) plan(ctx context.Context, repos Repositories, group repository.ProductGroup, batches []*entity.IntakeBatch) (groupResult, error) {
	if len(batches) == 0 {
		return groupResult{}, nil
	}
	entries := make([]inventory.Entry, len(batches))
	byID := make(map[string]*entity.IntakeBatch, len(batches))
	ids := make([]string, len(batches))
	for i, b := range batches {
		entries[i] = inventory.Entry{ID: b.ID, ReceivedAt: b.ReceivedAt, ExpiresAt: b.ExpiresAt}
		byID[b.ID] = b
		ids[i] = b.ID
	}
	inventory.Sort(entries, uc.deps.Policy.Order)

	adjs, err := repos.Adjustments.ListCompletedByBatches(ctx, ids)
	if err != nil {
		return groupResult{}, fmt.Errorf("ajustes: %w", err)
	}
	sold, err := repos.Sales.SumCompletedSalesForBatches(ctx, ids)
	if err != nil {
		return groupResult{}, fmt.Errorf("ventas: %w", err)
	}
	refunded, err := repos.Sales.SumProcessedRefundsForBatches(ctx, ids)
	if err != nil {
		return groupResult{}, fmt.Errorf("reembolsos: %w", err)
	}

	var res groupResult
	ledgers := make([]inventory.BatchLedger, len(entries))
	for i, e := range entries {
		b := byID[e.ID]
		delta := decimal.Zero
		for _, a := range adjs[b.ID] {
			delta = delta.Add(a.CountedQuantity())
		}
		ledgers[i] = inventory.BatchLedger{BatchID: b.ID, Intake: b.Quantity, AdjustmentDelta: delta, Current: b.CalculatedQuantity}
		if raw := ledgers[i].RawCapacity(); raw.IsNegative() {
			res.warnings = append(res.warnings, domain.IntegrityWarning{
				Kind:       domain.WarningNegativeAvailability,
				BusinessID: group.BusinessID,
				ProductID:  group.ProductID,
				BatchID:    b.ID,
				Amount:     raw,
				Message:    "ingreso más ajustes negativo; capacidad recortada a cero",
			})
		}
	}

	dist := inventory.Distribute(ledgers, sold, refunded)
	if dist.Unallocated.IsPositive() {
		res.warnings = append(res.warnings, domain.IntegrityWarning{
			Kind:       domain.WarningUnallocatedRemainder,
			BusinessID: group.BusinessID,
			ProductID:  group.ProductID,
			Amount:     dist.Unallocated,
			Message:    "reducción sin asignar tras agotar todos los lotes",
		})
	}
	for _, r := range dist.Batches {
		res.diffs = append(res.diffs, BatchDiff{
			BusinessID: group.BusinessID,
			ProductID:  group.ProductID,
			BatchID:    r.BatchID,
			Before:     r.Before,
			After:      r.After,
			Changed:    r.Changed(),
		})
	}
	return res, nil
}
