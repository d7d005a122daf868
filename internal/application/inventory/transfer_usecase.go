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

// TransferUseCase máquina de estados del traslado entre ubicaciones:
// DRAFT → REQUESTED → APPROVED → IN_TRANSIT → COMPLETED, con REJECTED y CANCELLED como terminales alternos.
type TransferUseCase struct {
	deps  Deps
	guard *ConsistencyGuard
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(deps Deps, guard *ConsistencyGuard) *TransferUseCase {
	return &TransferUseCase{deps: deps, guard: guard}
}

// LineItemInput ítem solicitado.
type LineItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateTransferInput entrada para crear un traslado en DRAFT. Reference vacío genera una.
type CreateTransferInput struct {
	BusinessID            string
	Reference             string
	SourceLocationID      string
	DestinationLocationID string
	Notes                 string
	Items                 []LineItemInput
	Actor                 string
}

// Create registra el traslado en DRAFT con sus ítems iniciales.
func (uc *TransferUseCase) Create(ctx context.Context, in CreateTransferInput) (*entity.Transfer, error) {
	if in.BusinessID == "" || in.SourceLocationID == "" || in.DestinationLocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.SourceLocationID == in.DestinationLocationID {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "origen y destino deben ser distintos")
	}
	now := uc.deps.Policy.now()
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		ref = newReference("TRF", now)
	}

	var out *entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		for _, locID := range []string{in.SourceLocationID, in.DestinationLocationID} {
			if err := checkLocation(ctx, repos, in.BusinessID, locID); err != nil {
				return err
			}
		}
		exists, err := repos.Transfers.ActiveReferenceExists(ctx, ref, "")
		if err != nil {
			return fmt.Errorf("verificar referencia: %w", err)
		}
		if exists {
			return fmt.Errorf("referencia %s: %w", ref, domain.ErrDuplicate)
		}
		t := &entity.Transfer{
			ID:                    uuid.New().String(),
			BusinessID:            in.BusinessID,
			Reference:             ref,
			Status:                entity.TransferDraft,
			SourceLocationID:      in.SourceLocationID,
			DestinationLocationID: in.DestinationLocationID,
			Notes:                 in.Notes,
			CreatedBy:             in.Actor,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := repos.Transfers.Create(ctx, t); err != nil {
			return fmt.Errorf("crear traslado: %w", err)
		}
		if err := appendAudit(ctx, repos, t, entity.AuditCreated, "", entity.TransferDraft, in.Actor, "", now); err != nil {
			return err
		}
		for _, item := range in.Items {
			if err := addLineItem(ctx, repos, t, item, in.Actor, now); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.deps.Metrics.TransferTransition(string(out.Status))
	uc.deps.log().Info().Str("transfer_id", out.ID).Str("reference", out.Reference).Int("items", len(out.Items)).Msg("traslado creado")
	return out, nil
}

func checkLocation(ctx context.Context, repos Repositories, businessID, locationID string) error {
	loc, err := repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	if loc.BusinessID != businessID {
		return fmt.Errorf("ubicación %s: %w", locationID, domain.ErrForbidden)
	}
	if !loc.ValidKind() {
		return domain.NewValidationError(domain.ErrInvalidInput, "la ubicación %s debe ser bodega o tienda", locationID)
	}
	return nil
}

// AddLineItem agrega un ítem a un traslado en DRAFT.
func (uc *TransferUseCase) AddLineItem(ctx context.Context, transferID string, item LineItemInput, actor string) (*entity.Transfer, error) {
	var out *entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		t, err := lockTransfer(ctx, repos, transferID)
		if err != nil {
			return err
		}
		if t.Status != entity.TransferDraft {
			return domain.NewValidationError(domain.ErrInvalidTransition, "solo se agregan ítems en DRAFT; estado actual %s", t.Status)
		}
		if err := addLineItem(ctx, repos, t, item, actor, uc.deps.Policy.now()); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func addLineItem(ctx context.Context, repos Repositories, t *entity.Transfer, in LineItemInput, actor string, now time.Time) error {
	if in.ProductID == "" || !in.Quantity.IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidInput, "cada ítem requiere producto y cantidad mayor que cero")
	}
	product, err := repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrNotFound)
	}
	if product.BusinessID != t.BusinessID {
		return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrForbidden)
	}
	item := &entity.TransferLineItem{
		ID:                uuid.New().String(),
		TransferID:        t.ID,
		ProductID:         in.ProductID,
		RequestedQuantity: in.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repos.Transfers.AddLineItem(ctx, item); err != nil {
		return fmt.Errorf("agregar ítem: %w", err)
	}
	t.Items = append(t.Items, item)
	return appendAudit(ctx, repos, t, entity.AuditItemAdded, t.Status, t.Status, actor,
		fmt.Sprintf("%s x %s", in.ProductID, in.Quantity), now)
}

// Submit DRAFT → REQUESTED; requiere al menos un ítem.
func (uc *TransferUseCase) Submit(ctx context.Context, id, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, id, inventory.ActionSubmit, actor, "", func(_ context.Context, _ Repositories, t *entity.Transfer, _ time.Time, _ *txEffects) error {
		if len(t.Items) == 0 {
			return domain.NewValidationError(domain.ErrInvalidInput, "el traslado no tiene ítems")
		}
		return nil
	})
}

// Approve REQUESTED → APPROVED. approved (por ID de ítem) fija la cantidad aprobada; valida stock disponible.
func (uc *TransferUseCase) Approve(ctx context.Context, id, actor string, approved map[string]decimal.Decimal) (*entity.Transfer, error) {
	return uc.transition(ctx, id, inventory.ActionApprove, actor, "", func(ctx context.Context, repos Repositories, t *entity.Transfer, now time.Time, _ *txEffects) error {
		if err := applyQuantities(ctx, repos, t, approved, now, func(it *entity.TransferLineItem, q decimal.Decimal) {
			it.ApprovedQuantity = &q
		}); err != nil {
			return err
		}
		return uc.guard.CheckTransferFulfillment(ctx, t.RequiredByProduct(), func(ctx context.Context, productID string) (decimal.Decimal, error) {
			src, err := loadSourceStock(ctx, repos, t.SourceLocationID, productID, false)
			if err != nil {
				return decimal.Zero, err
			}
			return availableAt(ctx, repos, src, t.SourceLocationID, t.ID)
		})
	})
}

// applyQuantities fija aprobada o despachada por ítem; no puede superar lo requerido hasta ahora.
func applyQuantities(ctx context.Context, repos Repositories, t *entity.Transfer, qty map[string]decimal.Decimal, now time.Time, set func(*entity.TransferLineItem, decimal.Decimal)) error {
	if len(qty) == 0 {
		return nil
	}
	byID := make(map[string]*entity.TransferLineItem, len(t.Items))
	for _, it := range t.Items {
		byID[it.ID] = it
	}
	for _, itemID := range sortedKeys(qty) {
		it, ok := byID[itemID]
		if !ok {
			return fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
		}
		q := qty[itemID]
		if !q.IsPositive() || q.GreaterThan(it.RequiredQuantity()) {
			return domain.NewValidationError(domain.ErrInvalidInput,
				"la cantidad del ítem %s debe estar entre 0 y %s", itemID, it.RequiredQuantity())
		}
		set(it, q)
		it.UpdatedAt = now
		if err := repos.Transfers.UpdateLineItem(ctx, it); err != nil {
			return fmt.Errorf("actualizar ítem: %w", err)
		}
	}
	return nil
}

// Reject REQUESTED → REJECTED con motivo obligatorio.
func (uc *TransferUseCase) Reject(ctx context.Context, id, actor, reason string) (*entity.Transfer, error) {
	reason = strings.TrimSpace(reason)
	return uc.transition(ctx, id, inventory.ActionReject, actor, reason, func(_ context.Context, _ Repositories, t *entity.Transfer, _ time.Time, _ *txEffects) error {
		if reason == "" {
			return domain.NewValidationError(domain.ErrInvalidInput, "el motivo de rechazo es obligatorio")
		}
		t.RejectionReason = reason
		return nil
	})
}

// Dispatch APPROVED → IN_TRANSIT. Bloquea las entradas del origen, verifica todos los ítems y solo entonces
// descuenta en el orden de consumo configurado. Si algún ítem no alcanza no se descuenta nada.
func (uc *TransferUseCase) Dispatch(ctx context.Context, id, actor string, fulfilled map[string]decimal.Decimal) (*entity.Transfer, error) {
	return uc.transition(ctx, id, inventory.ActionDispatch, actor, "", func(ctx context.Context, repos Repositories, t *entity.Transfer, now time.Time, fx *txEffects) error {
		if err := applyQuantities(ctx, repos, t, fulfilled, now, func(it *entity.TransferLineItem, q decimal.Decimal) {
			it.FulfilledQuantity = &q
		}); err != nil {
			return err
		}
		required := t.RequiredByProduct()
		sources := make(map[string]*sourceStock, len(required))
		for _, productID := range sortedKeys(required) {
			src, err := loadSourceStock(ctx, repos, t.SourceLocationID, productID, true)
			if err != nil {
				return err
			}
			sources[productID] = src
		}
		if err := uc.guard.CheckTransferFulfillment(ctx, required, func(ctx context.Context, productID string) (decimal.Decimal, error) {
			return availableAt(ctx, repos, sources[productID], t.SourceLocationID, t.ID)
		}); err != nil {
			return err
		}
		for _, it := range t.Items {
			if err := uc.deduct(ctx, repos, t, it, sources[it.ProductID], actor, now, fx); err != nil {
				return err
			}
		}
		return nil
	})
}

// deduct consume la cantidad requerida del ítem. Los lotes se descuentan con un TRANSFER_OUT completado
// y la fila agregada directamente; cada toma queda registrada como asignación.
func (uc *TransferUseCase) deduct(ctx context.Context, repos Repositories, t *entity.Transfer, it *entity.TransferLineItem, src *sourceStock, actor string, now time.Time, fx *txEffects) error {
	need := it.RequiredQuantity()
	takes, ok := inventory.Allocate(src.entries, need, uc.deps.Policy.Order)
	if !ok {
		have := src.onHand()
		ve := domain.NewQuantityError(domain.ErrInsufficientStock,
			fmt.Sprintf("stock insuficiente para el producto %s", it.ProductID), have, need.Neg(), have.Sub(need))
		ve.Details = map[string]string{"product_id": it.ProductID}
		return ve
	}
	for _, take := range takes {
		alloc := &entity.TransferAllocation{
			ID:         uuid.New().String(),
			TransferID: t.ID,
			LineItemID: it.ID,
			SourceKind: take.Entry.Kind,
			Quantity:   take.Quantity,
			CreatedAt:  now,
		}
		switch take.Entry.Kind {
		case entity.AllocationSourceBatch:
			batch := src.batches[take.Entry.ID]
			adj, err := uc.systemAdjustment(ctx, repos, fx, batch, entity.AdjustmentTransferOut, take.Quantity.Neg(), take.Entry.OnHand, t.Reference, actor, now)
			if err != nil {
				return err
			}
			alloc.BatchID = batch.ID
			alloc.AdjustmentID = adj.ID
		case entity.AllocationSourceLocationStock:
			src.stock.Quantity = src.stock.Quantity.Sub(take.Quantity)
			if err := repos.LocationStock.UpdateQuantity(ctx, src.stock.ID, src.stock.Quantity); err != nil {
				return fmt.Errorf("descontar stock de ubicación: %w", err)
			}
			alloc.LocationStockID = src.stock.ID
		}
		if err := repos.Transfers.AddAllocation(ctx, alloc); err != nil {
			return fmt.Errorf("registrar asignación: %w", err)
		}
	}
	src.consume(takes)

	it.UnitCost = inventory.WeightedUnitCost(takes)
	if it.FulfilledQuantity == nil {
		it.FulfilledQuantity = &need
	}
	it.UpdatedAt = now
	if err := repos.Transfers.UpdateLineItem(ctx, it); err != nil {
		return fmt.Errorf("actualizar ítem: %w", err)
	}
	return nil
}

// systemAdjustment registra un ajuste COMPLETED generado por un traslado y mueve la cantidad calculada del lote.
func (uc *TransferUseCase) systemAdjustment(ctx context.Context, repos Repositories, fx *txEffects, batch *entity.IntakeBatch, typ entity.AdjustmentType, qty, before decimal.Decimal, reference, actor string, now time.Time) (*entity.Adjustment, error) {
	adj := &entity.Adjustment{
		ID:              uuid.New().String(),
		BatchID:         batch.ID,
		Type:            typ,
		Quantity:        qty,
		QuantityBefore:  before,
		UnitCost:        batch.LandedUnitCost(),
		Reason:          "traslado " + reference,
		Status:          entity.AdjustmentCompleted,
		ReferenceNumber: reference,
		CreatedBy:       actor,
		ApprovedBy:      actor,
		ApprovedAt:      &now,
		CompletedBy:     actor,
		CompletedAt:     &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	adj.RecomputeTotalCost()
	if err := repos.Adjustments.Create(ctx, adj); err != nil {
		return nil, fmt.Errorf("registrar %s: %w", typ, err)
	}
	batch.CalculatedQuantity = clampZero(batch.CalculatedQuantity.Add(qty))
	if err := repos.Batches.UpdateCalculatedQuantity(ctx, batch.ID, batch.CalculatedQuantity); err != nil {
		return nil, fmt.Errorf("actualizar cantidad calculada: %w", err)
	}
	fx.adjustments = append(fx.adjustments, adj)
	return adj, nil
}

// Complete IN_TRANSIT → COMPLETED. Incrementa el stock agregado del destino (crea y bloquea la fila).
// Completar un traslado ya completado no hace nada.
func (uc *TransferUseCase) Complete(ctx context.Context, id, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, id, inventory.ActionComplete, actor, "", func(ctx context.Context, repos Repositories, t *entity.Transfer, _ time.Time, _ *txEffects) error {
		required := t.RequiredByProduct()
		for _, productID := range sortedKeys(required) {
			stock, err := repos.LocationStock.GetOrCreateForUpdate(ctx, t.DestinationLocationID, productID)
			if err != nil {
				return fmt.Errorf("stock destino de %s: %w", productID, err)
			}
			stock.Quantity = stock.Quantity.Add(required[productID])
			if err := repos.LocationStock.UpdateQuantity(ctx, stock.ID, stock.Quantity); err != nil {
				return fmt.Errorf("acreditar destino: %w", err)
			}
		}
		return nil
	})
}

// Cancel {REQUESTED, APPROVED, IN_TRANSIT} → CANCELLED. Desde IN_TRANSIT restaura primero lo descontado
// en el origen. Cancelar un traslado ya cancelado no hace nada.
func (uc *TransferUseCase) Cancel(ctx context.Context, id, actor, reason string) (*entity.Transfer, error) {
	reason = strings.TrimSpace(reason)
	return uc.transition(ctx, id, inventory.ActionCancel, actor, reason, func(ctx context.Context, repos Repositories, t *entity.Transfer, now time.Time, fx *txEffects) error {
		if reason == "" {
			return domain.NewValidationError(domain.ErrInvalidInput, "el motivo de cancelación es obligatorio")
		}
		t.CancellationReason = reason
		if t.Status != entity.TransferInTransit {
			return nil
		}
		return uc.restore(ctx, repos, t, actor, now, fx)
	})
}

// restore revierte las asignaciones abiertas del despacho, en orden de entrada de origen.
func (uc *TransferUseCase) restore(ctx context.Context, repos Repositories, t *entity.Transfer, actor string, now time.Time, fx *txEffects) error {
	allocs, err := repos.Transfers.ListOpenAllocations(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("asignaciones de %s: %w", t.ID, err)
	}
	slices.SortFunc(allocs, func(a, b *entity.TransferAllocation) int {
		return strings.Compare(a.BatchID+a.LocationStockID, b.BatchID+b.LocationStockID)
	})
	for _, alloc := range allocs {
		switch alloc.SourceKind {
		case entity.AllocationSourceBatch:
			batch, err := repos.Batches.GetForUpdate(ctx, alloc.BatchID)
			if err != nil {
				return err
			}
			if batch == nil {
				return fmt.Errorf("lote %s: %w", alloc.BatchID, domain.ErrNotFound)
			}
			avail, err := batchAvailability(ctx, repos, batch, "")
			if err != nil {
				return err
			}
			if _, err := uc.systemAdjustment(ctx, repos, fx, batch, entity.AdjustmentTransferIn, alloc.Quantity, avail.Available, t.Reference, actor, now); err != nil {
				return err
			}
		case entity.AllocationSourceLocationStock:
			stock, err := repos.LocationStock.GetByIDForUpdate(ctx, alloc.LocationStockID)
			if err != nil {
				return err
			}
			if stock == nil {
				return fmt.Errorf("stock %s: %w", alloc.LocationStockID, domain.ErrNotFound)
			}
			if err := repos.LocationStock.UpdateQuantity(ctx, stock.ID, stock.Quantity.Add(alloc.Quantity)); err != nil {
				return fmt.Errorf("restaurar stock de ubicación: %w", err)
			}
		}
		alloc.RestoredAt = &now
		if err := repos.Transfers.MarkAllocationRestored(ctx, alloc); err != nil {
			return fmt.Errorf("marcar asignación: %w", err)
		}
	}
	return nil
}

// txEffects eventos producidos dentro de la transacción; se publican solo si confirma.
type txEffects struct {
	adjustments []*entity.Adjustment
}

type transitionFunc func(ctx context.Context, repos Repositories, t *entity.Transfer, now time.Time, fx *txEffects) error

// transition bloquea el traslado, valida la acción, ejecuta el efecto y registra exactamente una entrada de bitácora.
func (uc *TransferUseCase) transition(ctx context.Context, id string, action inventory.TransferAction, actor, remarks string, effect transitionFunc) (*entity.Transfer, error) {
	var (
		out  *entity.Transfer
		noop bool
		fx   txEffects
	)
	err := uc.deps.Tx.Run(ctx, func(repos Repositories) error {
		fx = txEffects{}
		t, err := lockTransfer(ctx, repos, id)
		if err != nil {
			return err
		}
		next, audit, isNoop, err := inventory.NextStatus(t.Status, action)
		if err != nil {
			return err
		}
		out, noop = t, isNoop
		if noop {
			return nil
		}
		now := uc.deps.Policy.now()
		if err := effect(ctx, repos, t, now, &fx); err != nil {
			return err
		}
		prev := t.Status
		stampTransition(t, action, actor, now)
		t.Status = next
		t.UpdatedAt = now
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return fmt.Errorf("actualizar traslado: %w", err)
		}
		return appendAudit(ctx, repos, t, audit, prev, next, actor, remarks, now)
	})
	if err != nil {
		return nil, err
	}
	log := uc.deps.log().Child(map[string]any{"transfer_id": out.ID, "reference": out.Reference})
	if noop {
		log.Info().Str("action", string(action)).Str("actor", actor).Msg("traslado ya en estado terminal; sin cambios")
		return out, nil
	}
	for _, adj := range fx.adjustments {
		uc.deps.Metrics.AdjustmentTransition(string(adj.Type), string(adj.Status))
		log.Debug().Str("adjustment_id", adj.ID).Str("type", string(adj.Type)).Str("batch_id", adj.BatchID).
			Str("quantity", adj.Quantity.String()).Msg("ajuste de sistema registrado")
	}
	uc.deps.Metrics.TransferTransition(string(out.Status))
	log.Info().Str("action", string(action)).Str("actor", actor).Str("status", string(out.Status)).Msg("transición de traslado")
	return out, nil
}

func stampTransition(t *entity.Transfer, action inventory.TransferAction, actor string, now time.Time) {
	at := &now
	switch action {
	case inventory.ActionSubmit:
		t.SubmittedBy, t.SubmittedAt = actor, at
	case inventory.ActionApprove:
		t.ApprovedBy, t.ApprovedAt = actor, at
	case inventory.ActionReject:
		t.RejectedBy, t.RejectedAt = actor, at
	case inventory.ActionDispatch:
		t.DispatchedBy, t.DispatchedAt = actor, at
	case inventory.ActionComplete:
		t.CompletedBy, t.CompletedAt = actor, at
	case inventory.ActionCancel:
		t.CancelledBy, t.CancelledAt = actor, at
	}
}

func appendAudit(ctx context.Context, repos Repositories, t *entity.Transfer, action string, from, to entity.TransferStatus, actor, remarks string, now time.Time) error {
	entry := &entity.TransferAuditEntry{
		ID:         uuid.New().String(),
		TransferID: t.ID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Remarks:    remarks,
		CreatedAt:  now,
	}
	if err := repos.Transfers.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("bitácora del traslado: %w", err)
	}
	t.Audit = append(t.Audit, entry)
	return nil
}

func lockTransfer(ctx context.Context, repos Repositories, id string) (*entity.Transfer, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	t, err := repos.Transfers.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// AvailableQuantity disponible en la ubicación para el producto menos lo reservado por otros
// traslados REQUESTED/APPROVED con el mismo origen.
func (uc *TransferUseCase) AvailableQuantity(ctx context.Context, locationID, productID, excludeTransferID string) (decimal.Decimal, error) {
	if locationID == "" || productID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	src, err := loadSourceStock(ctx, uc.deps.Repos, locationID, productID, false)
	if err != nil {
		return decimal.Zero, err
	}
	return availableAt(ctx, uc.deps.Repos, src, locationID, excludeTransferID)
}

// AvailableForBusiness como AvailableQuantity, verificando primero que la ubicación sea del negocio.
func (uc *TransferUseCase) AvailableForBusiness(ctx context.Context, businessID, locationID, productID string) (decimal.Decimal, error) {
	if err := checkLocation(ctx, uc.deps.Repos, businessID, locationID); err != nil {
		return decimal.Zero, err
	}
	return uc.AvailableQuantity(ctx, locationID, productID, "")
}

// Get devuelve el traslado con ítems y bitácora, o ErrNotFound.
func (uc *TransferUseCase) Get(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := uc.deps.Repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}
