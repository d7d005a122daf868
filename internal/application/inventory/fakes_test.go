package inventory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var errInjected = errors.New("falla inyectada")

// memData estado completo de la BD en memoria; clone permite rollback.
type memData struct {
	batches     map[string]entity.IntakeBatch
	adjustments map[string]entity.Adjustment
	adjOrder    []string
	transfers   map[string]entity.Transfer
	items       map[string]entity.TransferLineItem
	itemOrder   []string
	audit       []entity.TransferAuditEntry
	allocs      map[string]entity.TransferAllocation
	allocOrder  []string
	stock       map[string]entity.LocationStock
	locations   map[string]entity.Location
	products    map[string]entity.Product
	sales       []entity.SaleFact
	refunds     []entity.RefundFact
}

func (d *memData) clone() *memData {
	return &memData{
		batches:     maps.Clone(d.batches),
		adjustments: maps.Clone(d.adjustments),
		adjOrder:    slices.Clone(d.adjOrder),
		transfers:   maps.Clone(d.transfers),
		items:       maps.Clone(d.items),
		itemOrder:   slices.Clone(d.itemOrder),
		audit:       slices.Clone(d.audit),
		allocs:      maps.Clone(d.allocs),
		allocOrder:  slices.Clone(d.allocOrder),
		stock:       maps.Clone(d.stock),
		locations:   maps.Clone(d.locations),
		products:    maps.Clone(d.products),
		sales:       slices.Clone(d.sales),
		refunds:     slices.Clone(d.refunds),
	}
}

// memDB BD en memoria: las transacciones se serializan y hacen rollback restaurando el snapshot.
type memDB struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	d        *memData
	failures map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		d: &memData{
			batches:     map[string]entity.IntakeBatch{},
			adjustments: map[string]entity.Adjustment{},
			transfers:   map[string]entity.Transfer{},
			items:       map[string]entity.TransferLineItem{},
			allocs:      map[string]entity.TransferAllocation{},
			stock:       map[string]entity.LocationStock{},
			locations:   map[string]entity.Location{},
			products:    map[string]entity.Product{},
		},
		failures: map[string]error{},
	}
}

// failOn hace fallar la operación indicada (ej. "Transfers.AddAllocation" o "Batches.ListForUpdateByProduct:<producto>").
func (db *memDB) failOn(op string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = errInjected
}

func (db *memDB) check(ops ...string) error {
	for _, op := range ops {
		if err, ok := db.failures[op]; ok {
			return err
		}
	}
	return nil
}

func (db *memDB) repos() Repositories {
	return Repositories{
		Batches:       &memBatches{db},
		Adjustments:   &memAdjustments{db},
		Transfers:     &memTransfers{db},
		LocationStock: &memStock{db},
		Locations:     &memLocations{db},
		Products:      &memProducts{db},
		Sales:         &memSales{db},
	}
}

// Run implementa TxRunner.
func (db *memDB) Run(_ context.Context, fn func(repos Repositories) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	db.mu.Lock()
	snapshot := db.d.clone()
	db.mu.Unlock()
	if err := fn(db.repos()); err != nil {
		db.mu.Lock()
		db.d = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// ---------- lotes ----------

type memBatches struct{ db *memDB }

func (r *memBatches) Create(_ context.Context, b *entity.IntakeBatch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.d.batches[b.ID] = *b
	return nil
}

func (r *memBatches) GetByID(_ context.Context, id string) (*entity.IntakeBatch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.d.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memBatches) GetForUpdate(ctx context.Context, id string) (*entity.IntakeBatch, error) {
	return r.GetByID(ctx, id)
}

func (r *memBatches) filter(keep func(entity.IntakeBatch) bool) []*entity.IntakeBatch {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.IntakeBatch
	for _, b := range r.db.d.batches {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	slices.SortFunc(out, func(a, b *entity.IntakeBatch) int { return compareStrings(a.ID, b.ID) })
	return out
}

func (r *memBatches) ListByLocationProduct(_ context.Context, locationID, productID string) ([]*entity.IntakeBatch, error) {
	return r.filter(func(b entity.IntakeBatch) bool { return b.LocationID == locationID && b.ProductID == productID }), nil
}

func (r *memBatches) ListForUpdateByLocationProduct(ctx context.Context, locationID, productID string) ([]*entity.IntakeBatch, error) {
	return r.ListByLocationProduct(ctx, locationID, productID)
}

func (r *memBatches) ListByProduct(_ context.Context, businessID, productID string) ([]*entity.IntakeBatch, error) {
	return r.filter(func(b entity.IntakeBatch) bool { return b.BusinessID == businessID && b.ProductID == productID }), nil
}

func (r *memBatches) ListForUpdateByProduct(ctx context.Context, businessID, productID string) ([]*entity.IntakeBatch, error) {
	r.db.mu.Lock()
	err := r.db.check("Batches.ListForUpdateByProduct:" + productID)
	r.db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.ListByProduct(ctx, businessID, productID)
}

func (r *memBatches) ListProductGroups(_ context.Context, businessID string) ([]repository.ProductGroup, error) {
	seen := map[string]bool{}
	var out []repository.ProductGroup
	for _, b := range r.filter(func(b entity.IntakeBatch) bool { return b.BusinessID == businessID }) {
		if !seen[b.ProductID] {
			seen[b.ProductID] = true
			out = append(out, repository.ProductGroup{BusinessID: businessID, ProductID: b.ProductID})
		}
	}
	slices.SortFunc(out, func(a, b repository.ProductGroup) int { return compareStrings(a.ProductID, b.ProductID) })
	return out, nil
}

func (r *memBatches) UpdateIntakeQuantity(_ context.Context, id string, quantity, calculated decimal.Decimal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.d.batches[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Quantity, b.CalculatedQuantity = quantity, calculated
	r.db.d.batches[id] = b
	return nil
}

func (r *memBatches) UpdateCalculatedQuantity(_ context.Context, id string, calculated decimal.Decimal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.d.batches[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.CalculatedQuantity = calculated
	r.db.d.batches[id] = b
	return nil
}

// ---------- ajustes ----------

type memAdjustments struct{ db *memDB }

func (r *memAdjustments) Create(_ context.Context, a *entity.Adjustment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("Adjustments.Create"); err != nil {
		return err
	}
	r.db.d.adjustments[a.ID] = *a
	r.db.d.adjOrder = append(r.db.d.adjOrder, a.ID)
	return nil
}

func (r *memAdjustments) GetByID(_ context.Context, id string) (*entity.Adjustment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.d.adjustments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAdjustments) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.GetByID(ctx, id)
}

func (r *memAdjustments) Update(_ context.Context, a *entity.Adjustment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.d.adjustments[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.db.d.adjustments[a.ID] = *a
	return nil
}

func (r *memAdjustments) filter(keep func(entity.Adjustment) bool) []*entity.Adjustment {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Adjustment
	for _, id := range r.db.d.adjOrder {
		if a, ok := r.db.d.adjustments[id]; ok && keep(a) {
			out = append(out, &a)
		}
	}
	return out
}

func (r *memAdjustments) ListByReference(_ context.Context, reference string) ([]*entity.Adjustment, error) {
	return r.filter(func(a entity.Adjustment) bool { return a.ReferenceNumber == reference }), nil
}

func (r *memAdjustments) ListCompletedByBatch(_ context.Context, batchID string) ([]*entity.Adjustment, error) {
	return r.filter(func(a entity.Adjustment) bool {
		return a.BatchID == batchID && a.Status == entity.AdjustmentCompleted
	}), nil
}

func (r *memAdjustments) ListCompletedByBatches(_ context.Context, batchIDs []string) (map[string][]*entity.Adjustment, error) {
	out := map[string][]*entity.Adjustment{}
	for _, a := range r.filter(func(a entity.Adjustment) bool {
		return a.Status == entity.AdjustmentCompleted && slices.Contains(batchIDs, a.BatchID)
	}) {
		out[a.BatchID] = append(out[a.BatchID], a)
	}
	return out, nil
}

func (r *memAdjustments) CountCompletedByBatch(ctx context.Context, batchID string) (int, error) {
	list, err := r.ListCompletedByBatch(ctx, batchID)
	return len(list), err
}

// ---------- traslados ----------

type memTransfers struct{ db *memDB }

func (r *memTransfers) Create(_ context.Context, t *entity.Transfer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h := *t
	h.Items, h.Audit = nil, nil
	r.db.d.transfers[t.ID] = h
	return nil
}

func (r *memTransfers) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.d.transfers[id]
	if !ok {
		return nil, nil
	}
	for _, itemID := range r.db.d.itemOrder {
		if it := r.db.d.items[itemID]; it.TransferID == id {
			t.Items = append(t.Items, &it)
		}
	}
	for _, e := range r.db.d.audit {
		if e.TransferID == id {
			e := e
			t.Audit = append(t.Audit, &e)
		}
	}
	return &t, nil
}

func (r *memTransfers) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *memTransfers) Update(_ context.Context, t *entity.Transfer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.d.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	h := *t
	h.Items, h.Audit = nil, nil
	r.db.d.transfers[t.ID] = h
	return nil
}

func (r *memTransfers) ActiveReferenceExists(_ context.Context, reference, excludeID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.d.transfers {
		if t.Reference == reference && t.ID != excludeID && !t.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTransfers) AddLineItem(_ context.Context, it *entity.TransferLineItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.d.items[it.ID] = *it
	r.db.d.itemOrder = append(r.db.d.itemOrder, it.ID)
	return nil
}

func (r *memTransfers) UpdateLineItem(_ context.Context, it *entity.TransferLineItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.d.items[it.ID]; !ok {
		return domain.ErrNotFound
	}
	r.db.d.items[it.ID] = *it
	return nil
}

func (r *memTransfers) AppendAudit(_ context.Context, e *entity.TransferAuditEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.d.audit = append(r.db.d.audit, *e)
	return nil
}

func (r *memTransfers) ReservedQuantity(_ context.Context, sourceLocationID, productID, excludeTransferID string) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := decimal.Zero
	for _, it := range r.db.d.items {
		t := r.db.d.transfers[it.TransferID]
		if t.ID == excludeTransferID || t.SourceLocationID != sourceLocationID || it.ProductID != productID {
			continue
		}
		if t.Status == entity.TransferRequested || t.Status == entity.TransferApproved {
			total = total.Add(it.RequiredQuantity())
		}
	}
	return total, nil
}

func (r *memTransfers) AddAllocation(_ context.Context, a *entity.TransferAllocation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("Transfers.AddAllocation"); err != nil {
		return err
	}
	r.db.d.allocs[a.ID] = *a
	r.db.d.allocOrder = append(r.db.d.allocOrder, a.ID)
	return nil
}

func (r *memTransfers) ListOpenAllocations(_ context.Context, transferID string) ([]*entity.TransferAllocation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.TransferAllocation
	for _, id := range r.db.d.allocOrder {
		if a := r.db.d.allocs[id]; a.TransferID == transferID && a.RestoredAt == nil {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *memTransfers) MarkAllocationRestored(_ context.Context, a *entity.TransferAllocation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.d.allocs[a.ID] = *a
	return nil
}

// ---------- stock por ubicación ----------

type memStock struct{ db *memDB }

func (r *memStock) find(locationID, productID string) (entity.LocationStock, bool) {
	for _, s := range r.db.d.stock {
		if s.LocationID == locationID && s.ProductID == productID {
			return s, true
		}
	}
	return entity.LocationStock{}, false
}

func (r *memStock) Get(_ context.Context, locationID, productID string) (*entity.LocationStock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.find(locationID, productID)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memStock) GetForUpdate(ctx context.Context, locationID, productID string) (*entity.LocationStock, error) {
	return r.Get(ctx, locationID, productID)
}

func (r *memStock) GetOrCreateForUpdate(_ context.Context, locationID, productID string) (*entity.LocationStock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.find(locationID, productID)
	if !ok {
		s = entity.LocationStock{ID: uuid.New().String(), LocationID: locationID, ProductID: productID, Quantity: decimal.Zero}
		r.db.d.stock[s.ID] = s
	}
	return &s, nil
}

func (r *memStock) GetByIDForUpdate(_ context.Context, id string) (*entity.LocationStock, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.d.stock[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memStock) UpdateQuantity(_ context.Context, id string, quantity decimal.Decimal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.d.stock[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Quantity = quantity
	r.db.d.stock[id] = s
	return nil
}

func (r *memStock) HasPositiveForProduct(_ context.Context, productID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.d.stock {
		if s.ProductID == productID && s.Quantity.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

// ---------- lecturas ----------

type memLocations struct{ db *memDB }

func (r *memLocations) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.d.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

type memProducts struct{ db *memDB }

func (r *memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.d.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type memSales struct{ db *memDB }

func (r *memSales) SumCompletedSales(ctx context.Context, batchID string) (decimal.Decimal, error) {
	return r.SumCompletedSalesForBatches(ctx, []string{batchID})
}

func (r *memSales) CountCompletedSales(_ context.Context, batchID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, s := range r.db.d.sales {
		if s.BatchID == batchID {
			n++
		}
	}
	return n, nil
}

func (r *memSales) SumCompletedSalesForBatches(_ context.Context, batchIDs []string) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := decimal.Zero
	for _, s := range r.db.d.sales {
		if slices.Contains(batchIDs, s.BatchID) {
			total = total.Add(s.Quantity)
		}
	}
	return total, nil
}

func (r *memSales) SumProcessedRefundsForBatches(_ context.Context, batchIDs []string) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := decimal.Zero
	for _, rf := range r.db.d.refunds {
		if slices.Contains(batchIDs, rf.BatchID) {
			total = total.Add(rf.Quantity)
		}
	}
	return total, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ---------- fixture ----------

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db          *memDB
	deps        Deps
	intake      *IntakeUseCase
	adjustments *AdjustmentUseCase
	transfers   *TransferUseCase
	reconcile   *ReconcileUseCase

	business  string
	warehouse string
	store     string
	product   string
	product2  string
}

func newFixture(t *testing.T, tune ...func(*Policy)) *fixture {
	t.Helper()
	db := newMemDB()
	policy, err := NewPolicy("fifo", PairedApprovalNone, decimal.Zero)
	require.NoError(t, err)
	policy.Now = func() time.Time { return baseTime }
	for _, fn := range tune {
		fn(&policy)
	}
	deps := Deps{Tx: db, Repos: db.repos(), Policy: policy}
	guard := NewConsistencyGuard(nil)
	f := &fixture{
		db:          db,
		deps:        deps,
		intake:      NewIntakeUseCase(deps, guard),
		adjustments: NewAdjustmentUseCase(deps, guard),
		transfers:   NewTransferUseCase(deps, guard),
		reconcile:   NewReconcileUseCase(deps, 2),
		business:    uuid.NewString(),
		warehouse:   uuid.NewString(),
		store:       uuid.NewString(),
		product:     uuid.NewString(),
		product2:    uuid.NewString(),
	}
	db.d.locations[f.warehouse] = entity.Location{ID: f.warehouse, BusinessID: f.business, Name: "Bodega central", Kind: entity.LocationKindWarehouse}
	db.d.locations[f.store] = entity.Location{ID: f.store, BusinessID: f.business, Name: "Tienda norte", Kind: entity.LocationKindStorefront}
	db.d.products[f.product] = entity.Product{ID: f.product, BusinessID: f.business, SKU: "SKU-1", Name: "Café 500g"}
	db.d.products[f.product2] = entity.Product{ID: f.product2, BusinessID: f.business, SKU: "SKU-2", Name: "Té 250g"}
	return f
}

type batchOpt func(*CreateBatchInput)

func receivedDaysAgo(days int) batchOpt {
	return func(in *CreateBatchInput) { in.ReceivedAt = baseTime.AddDate(0, 0, -days) }
}

func expiresInDays(days int) batchOpt {
	return func(in *CreateBatchInput) {
		at := baseTime.AddDate(0, 0, days)
		in.ExpiresAt = &at
	}
}

func atLocation(id string) batchOpt {
	return func(in *CreateBatchInput) { in.LocationID = id }
}

func forProduct(id string) batchOpt {
	return func(in *CreateBatchInput) { in.ProductID = id }
}

func representsTransfer() batchOpt {
	return func(in *CreateBatchInput) { in.RepresentsTransfer = true }
}

// newBatch registra un lote en la bodega para el producto principal.
func (f *fixture) newBatch(t *testing.T, qty int64, opts ...batchOpt) *entity.IntakeBatch {
	t.Helper()
	in := CreateBatchInput{
		BusinessID: f.business,
		LocationID: f.warehouse,
		ProductID:  f.product,
		Quantity:   d(qty),
		UnitCost:   d(10),
		ReceivedAt: baseTime.AddDate(0, 0, -1),
	}
	for _, o := range opts {
		o(&in)
	}
	b, err := f.intake.CreateBatch(context.Background(), in)
	require.NoError(t, err)
	return b
}

func (f *fixture) available(t *testing.T, batchID string) decimal.Decimal {
	t.Helper()
	a, err := f.adjustments.Availability(context.Background(), batchID)
	require.NoError(t, err)
	return a.Available
}

func (f *fixture) storedBatch(t *testing.T, batchID string) entity.IntakeBatch {
	t.Helper()
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.d.batches[batchID]
	require.True(t, ok)
	return b
}

func (f *fixture) stockAt(locationID, productID string) decimal.Decimal {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.d.stock {
		if s.LocationID == locationID && s.ProductID == productID {
			return s.Quantity
		}
	}
	return decimal.Zero
}

func (f *fixture) setStock(locationID, productID string, qty int64) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	id := uuid.NewString()
	f.db.d.stock[id] = entity.LocationStock{ID: id, LocationID: locationID, ProductID: productID, Quantity: d(qty), CreatedAt: baseTime}
}

func (f *fixture) addSale(batchID, productID string, qty int64) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.d.sales = append(f.db.d.sales, entity.SaleFact{SaleItemID: uuid.NewString(), BatchID: batchID, ProductID: productID, Quantity: d(qty), CompletedAt: baseTime})
}

func (f *fixture) addRefund(batchID string, qty int64) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.d.refunds = append(f.db.d.refunds, entity.RefundFact{RefundItemID: uuid.NewString(), BatchID: batchID, Quantity: d(qty), ProcessedAt: baseTime})
}

// completeAdjustment crea, aprueba y completa un ajuste.
func (f *fixture) completeAdjustment(t *testing.T, batchID string, typ entity.AdjustmentType, qty int64) *entity.Adjustment {
	t.Helper()
	ctx := context.Background()
	adj, err := f.adjustments.Create(ctx, CreateAdjustmentInput{BatchID: batchID, Type: typ, Quantity: d(qty), Actor: "clerk"})
	require.NoError(t, err)
	_, err = f.adjustments.Approve(ctx, adj.ID, "manager")
	require.NoError(t, err)
	adj, err = f.adjustments.Complete(ctx, adj.ID, "manager")
	require.NoError(t, err)
	return adj
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, got.Equal(d(want)), "esperado %d, obtenido %s %v", want, got, msgAndArgs)
}
