package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// AdjustmentUseCase flujo de aprobación de ajustes manuales: PENDING → APPROVED → COMPLETED | REJECTED.
type AdjustmentUseCase struct {
	deps  Deps
	guard *ConsistencyGuard
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(deps Deps, guard *ConsistencyGuard) *AdjustmentUseCase {
	return &AdjustmentUseCase{deps: deps, guard: guard}
}

// CreateAdjustmentInput entrada para crear un ajuste. UnitCost nil toma el costo puesto en bodega del lote.
type CreateAdjustmentInput struct {
	BatchID         string
	Type            entity.AdjustmentType
	Quantity        decimal.Decimal
	Reason          string
	UnitCost        *decimal.Decimal
	ReferenceNumber string
	Actor           string
}

// Create registra el ajuste en PENDING con el signo corregido según el tipo.
func (uc *AdjustmentUseCase) Create(ctx context.Context, in CreateAdjustmentInput) (*entity.Adjustment, error) {
	if err := validateAdjustmentInput(in.BatchID, in.Type, in.Quantity, in.UnitCost); err != nil {
		return nil, err
	}
	var out *entity.Adjustment
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		batch, err := repos.Batches.GetForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrNotFound
		}
		out, err = uc.newAdjustment(ctx, repos, batch, in, uc.deps.Policy.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.AdjustmentTransition(string(out.Type), string(out.Status))
	uc.deps.log().Info().
		Str("adjustment_id", out.ID).
		Str("batch_id", out.BatchID).
		Str("type", string(out.Type)).
		Str("quantity", out.Quantity.String()).
		Bool("requires_approval", out.RequiresApproval).
		Msg("ajuste creado")
	return out, nil
}

func validateAdjustmentInput(batchID string, t entity.AdjustmentType, qty decimal.Decimal, unitCost *decimal.Decimal) error {
	if batchID == "" {
		return domain.ErrInvalidInput
	}
	if inventory.CategoryOf(t) == inventory.CategoryUnknown {
		return domain.NewValidationError(domain.ErrInvalidInput, "tipo de ajuste desconocido: %s", t)
	}
	if qty.IsZero() {
		return domain.NewValidationError(domain.ErrInvalidInput, "la cantidad del ajuste no puede ser cero")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return domain.NewValidationError(domain.ErrInvalidInput, "el costo unitario no puede ser negativo")
	}
	return nil
}

// newAdjustment arma y persiste el ajuste; el lote ya debe estar bloqueado.
func (uc *AdjustmentUseCase) newAdjustment(ctx context.Context, repos Repositories, batch *entity.IntakeBatch, in CreateAdjustmentInput, now time.Time) (*entity.Adjustment, error) {
	avail, err := batchAvailability(ctx, repos, batch, "")
	if err != nil {
		return nil, err
	}
	unitCost := batch.LandedUnitCost()
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	adj := &entity.Adjustment{
		ID:              uuid.New().String(),
		BatchID:         batch.ID,
		Type:            in.Type,
		Quantity:        inventory.NormalizeSign(in.Type, in.Quantity),
		QuantityBefore:  avail.Available,
		UnitCost:        unitCost,
		Reason:          strings.TrimSpace(in.Reason),
		Status:          entity.AdjustmentPending,
		ReferenceNumber: in.ReferenceNumber,
		CreatedBy:       in.Actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	adj.RecomputeTotalCost()
	adj.RequiresApproval = inventory.RequiresApproval(adj.Type, adj.TotalCost, uc.deps.Policy.ApprovalCostThreshold)
	if err := repos.Adjustments.Create(ctx, adj); err != nil {
		return nil, fmt.Errorf("crear ajuste: %w", err)
	}
	return adj, nil
}

// CreatePairedInput traslado por ajustes pareados: TRANSFER_OUT en el lote origen y TRANSFER_IN en el destino.
type CreatePairedInput struct {
	SourceBatchID      string
	DestinationBatchID string
	Quantity           decimal.Decimal
	Reason             string
	Actor              string
}

// CreatePaired crea ambas patas en una transacción, con la misma referencia. Bloquea origen y luego destino.
func (uc *AdjustmentUseCase) CreatePaired(ctx context.Context, in CreatePairedInput) (out, into *entity.Adjustment, err error) {
	if in.SourceBatchID == "" || in.DestinationBatchID == "" || in.SourceBatchID == in.DestinationBatchID {
		return nil, nil, domain.NewValidationError(domain.ErrInvalidInput, "se requieren lotes origen y destino distintos")
	}
	if !in.Quantity.IsPositive() {
		return nil, nil, domain.NewValidationError(domain.ErrInvalidInput, "la cantidad a trasladar debe ser mayor que cero")
	}
	now := uc.deps.Policy.now()
	ref := newReference("ADJ", now)
	err = uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		src, err := repos.Batches.GetForUpdate(ctx, in.SourceBatchID)
		if err != nil {
			return err
		}
		dst, err := repos.Batches.GetForUpdate(ctx, in.DestinationBatchID)
		if err != nil {
			return err
		}
		if src == nil || dst == nil {
			return domain.ErrNotFound
		}
		if src.BusinessID != dst.BusinessID {
			return domain.ErrForbidden
		}
		if src.ProductID != dst.ProductID {
			return domain.NewValidationError(domain.ErrInvalidInput, "los lotes del traslado deben ser del mismo producto")
		}
		out, err = uc.newAdjustment(ctx, repos, src, CreateAdjustmentInput{
			Type: entity.AdjustmentTransferOut, Quantity: in.Quantity, Reason: in.Reason, ReferenceNumber: ref, Actor: in.Actor,
		}, now)
		if err != nil {
			return err
		}
		into, err = uc.newAdjustment(ctx, repos, dst, CreateAdjustmentInput{
			Type: entity.AdjustmentTransferIn, Quantity: in.Quantity, Reason: in.Reason, ReferenceNumber: ref, Actor: in.Actor,
			UnitCost: &out.UnitCost,
		}, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	uc.deps.log().Info().Str("reference", ref).Str("quantity", in.Quantity.String()).Msg("traslado por ajustes pareados creado")
	return out, into, nil
}

// Approve PENDING → APPROVED. Aprobar un ajuste ya aprobado es un error.
// Un ajuste con RequiresApproval no lo aprueba quien lo registró.
// Si comparte referencia con otra pata, aplica la política de cascada configurada.
func (uc *AdjustmentUseCase) Approve(ctx context.Context, id, actor string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	var touched []*entity.Adjustment
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		touched = touched[:0]
		adj, err := lockAdjustment(ctx, repos, id)
		if err != nil {
			return err
		}
		if adj.RequiresApproval && adj.CreatedBy != "" && adj.CreatedBy == actor {
			return fmt.Errorf("ajuste %s: quien lo registró no puede aprobarlo: %w", adj.ID, domain.ErrForbidden)
		}
		now := uc.deps.Policy.now()
		if err := approve(ctx, repos, adj, actor, now); err != nil {
			return err
		}
		touched = append(touched, adj)
		out = adj
		if adj.ReferenceNumber == "" || uc.deps.Policy.PairedApproval == PairedApprovalNone {
			return nil
		}
		legs, err := uc.lockLegs(ctx, repos, adj)
		if err != nil {
			return err
		}
		for _, leg := range legs {
			if leg.ID != adj.ID && leg.Status == entity.AdjustmentPending {
				if err := approve(ctx, repos, leg, actor, now); err != nil {
					return err
				}
				touched = append(touched, leg)
			}
		}
		if uc.deps.Policy.PairedApproval != PairedApprovalComplete {
			return nil
		}
		for _, leg := range legs {
			if leg.Status != entity.AdjustmentApproved {
				continue
			}
			if err := uc.complete(ctx, repos, leg, actor, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, a := range touched {
		uc.deps.Metrics.AdjustmentTransition(string(a.Type), string(a.Status))
		uc.deps.log().Info().Str("adjustment_id", a.ID).Str("status", string(a.Status)).Str("actor", actor).Msg("ajuste aprobado")
	}
	return out, nil
}

// lockLegs bloquea todas las patas de la referencia; TRANSFER_OUT primero, luego por ID.
func (uc *AdjustmentUseCase) lockLegs(ctx context.Context, repos Repositories, adj *entity.Adjustment) ([]*entity.Adjustment, error) {
	listed, err := repos.Adjustments.ListByReference(ctx, adj.ReferenceNumber)
	if err != nil {
		return nil, fmt.Errorf("patas de %s: %w", adj.ReferenceNumber, err)
	}
	legs := make([]*entity.Adjustment, 0, len(listed))
	for _, l := range listed {
		if l.ID == adj.ID {
			legs = append(legs, adj)
			continue
		}
		locked, err := lockAdjustment(ctx, repos, l.ID)
		if err != nil {
			return nil, err
		}
		legs = append(legs, locked)
	}
	slices.SortFunc(legs, func(a, b *entity.Adjustment) int {
		ao, bo := a.Type == entity.AdjustmentTransferOut, b.Type == entity.AdjustmentTransferOut
		switch {
		case ao && !bo:
			return -1
		case bo && !ao:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return legs, nil
}

func approve(ctx context.Context, repos Repositories, adj *entity.Adjustment, actor string, now time.Time) error {
	if err := inventory.AdjustmentTransition(adj.Status, entity.AdjustmentPending); err != nil {
		return err
	}
	adj.Status = entity.AdjustmentApproved
	adj.ApprovedBy = actor
	adj.ApprovedAt = &now
	adj.UpdatedAt = now
	if err := repos.Adjustments.Update(ctx, adj); err != nil {
		return fmt.Errorf("aprobar ajuste: %w", err)
	}
	return nil
}

// Reject PENDING → REJECTED. Terminal; el ajuste nunca afecta stock.
func (uc *AdjustmentUseCase) Reject(ctx context.Context, id, actor, reason string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		adj, err := lockAdjustment(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := inventory.AdjustmentTransition(adj.Status, entity.AdjustmentPending); err != nil {
			return err
		}
		now := uc.deps.Policy.now()
		adj.Status = entity.AdjustmentRejected
		adj.RejectedBy = actor
		adj.RejectedAt = &now
		adj.RejectionReason = strings.TrimSpace(reason)
		adj.UpdatedAt = now
		if err := repos.Adjustments.Update(ctx, adj); err != nil {
			return fmt.Errorf("rechazar ajuste: %w", err)
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.AdjustmentTransition(string(out.Type), string(out.Status))
	uc.deps.log().Info().Str("adjustment_id", out.ID).Str("actor", actor).Msg("ajuste rechazado")
	return out, nil
}

// Complete APPROVED → COMPLETED tras validar que la disponibilidad no quede negativa.
// No modifica la cantidad de ingreso del lote.
func (uc *AdjustmentUseCase) Complete(ctx context.Context, id, actor string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		adj, err := lockAdjustment(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := uc.complete(ctx, repos, adj, actor, uc.deps.Policy.now()); err != nil {
			return err
		}
		out = adj
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.AdjustmentTransition(string(out.Type), string(out.Status))
	uc.deps.log().Info().
		Str("adjustment_id", out.ID).
		Str("batch_id", out.BatchID).
		Str("quantity", out.Quantity.String()).
		Bool("excluded", out.ExcludedFromAvailability).
		Str("actor", actor).
		Msg("ajuste completado")
	return out, nil
}

// complete ejecuta la transición dentro de la transacción; adj ya está bloqueado.
func (uc *AdjustmentUseCase) complete(ctx context.Context, repos Repositories, adj *entity.Adjustment, actor string, now time.Time) error {
	if err := inventory.AdjustmentTransition(adj.Status, entity.AdjustmentApproved); err != nil {
		return err
	}
	batch, err := repos.Batches.GetForUpdate(ctx, adj.BatchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return domain.ErrNotFound
	}
	// El lote que ya representa la llegada del traslado no vuelve a sumar la cantidad.
	if adj.Type == entity.AdjustmentTransferIn && batch.RepresentsTransfer {
		adj.ExcludedFromAvailability = true
	}
	if _, err := uc.guard.CheckAdjustmentCompletion(ctx, repos, adj, batch); err != nil {
		return err
	}
	adj.Status = entity.AdjustmentCompleted
	adj.CompletedBy = actor
	adj.CompletedAt = &now
	adj.UpdatedAt = now
	if err := repos.Adjustments.Update(ctx, adj); err != nil {
		return fmt.Errorf("completar ajuste: %w", err)
	}
	if delta := adj.CountedQuantity(); !delta.IsZero() {
		calc := clampZero(batch.CalculatedQuantity.Add(delta))
		if err := repos.Batches.UpdateCalculatedQuantity(ctx, batch.ID, calc); err != nil {
			return fmt.Errorf("actualizar cantidad calculada: %w", err)
		}
		batch.CalculatedQuantity = calc
	}
	return nil
}

func lockAdjustment(ctx context.Context, repos Repositories, id string) (*entity.Adjustment, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	adj, err := repos.Adjustments.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, domain.ErrNotFound
	}
	return adj, nil
}

// Get devuelve el ajuste o ErrNotFound.
func (uc *AdjustmentUseCase) Get(ctx context.Context, id string) (*entity.Adjustment, error) {
	adj, err := uc.deps.Repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, domain.ErrNotFound
	}
	return adj, nil
}

// Availability desglose de la disponibilidad actual del lote. Una disponibilidad negativa se reporta
// como advertencia de integridad sin abortar la lectura.
func (uc *AdjustmentUseCase) Availability(ctx context.Context, batchID string) (inventory.Availability, error) {
	batch, err := uc.deps.Repos.Batches.GetByID(ctx, batchID)
	if err != nil {
		return inventory.Availability{}, err
	}
	if batch == nil {
		return inventory.Availability{}, domain.ErrNotFound
	}
	avail, err := batchAvailability(ctx, uc.deps.Repos, batch, "")
	if err != nil {
		return inventory.Availability{}, err
	}
	if avail.Available.IsNegative() {
		w := domain.IntegrityWarning{
			Kind:       domain.WarningNegativeAvailability,
			BusinessID: batch.BusinessID,
			ProductID:  batch.ProductID,
			BatchID:    batch.ID,
			Amount:     avail.Available,
			Message:    "disponibilidad calculada negativa; requiere auditoría",
		}
		uc.deps.Metrics.IntegrityWarning(w.Kind)
		uc.deps.log().Warn().Str("warning", w.String()).Msg("advertencia de integridad")
	}
	return avail, nil
}
