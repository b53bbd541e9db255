package sales

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// memStore is a non-transactional in-memory store with failure hooks.
type memStore struct {
	mu       sync.Mutex
	sales    map[uuid.UUID]sales.Sale
	items    map[uuid.UUID]sales.SaleItem
	rows     map[uuid.UUID]sales.SaleItemBatch
	batches  map[uuid.UUID]inventory.StockBatch
	variants map[uuid.UUID]bool

	// hooks return a non-nil error to make the call fail
	onAdjust      func(batchID uuid.UUID, delta int64) error
	onCreateBatch func(rows []sales.SaleItemBatch) error
	onSoftDelete  func(id uuid.UUID) error
}

func newMemStore() *memStore {
	return &memStore{
		sales:    map[uuid.UUID]sales.Sale{},
		items:    map[uuid.UUID]sales.SaleItem{},
		rows:     map[uuid.UUID]sales.SaleItemBatch{},
		batches:  map[uuid.UUID]inventory.StockBatch{},
		variants: map[uuid.UUID]bool{},
	}
}

func (s *memStore) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(memSales{s}, memItems{s}, memItemBatches{s}, memBatches{s}, memVariants{s})
}

// snapshot is a comparable copy of everything the ledger may touch
type snapshot struct {
	Sales   map[uuid.UUID]sales.Sale
	Items   map[uuid.UUID]sales.SaleItem
	Rows    map[uuid.UUID]sales.SaleItemBatch
	Batches map[uuid.UUID]inventory.StockBatch
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		Sales:   make(map[uuid.UUID]sales.Sale, len(s.sales)),
		Items:   make(map[uuid.UUID]sales.SaleItem, len(s.items)),
		Rows:    make(map[uuid.UUID]sales.SaleItemBatch, len(s.rows)),
		Batches: make(map[uuid.UUID]inventory.StockBatch, len(s.batches)),
	}
	for k, v := range s.sales {
		snap.Sales[k] = v
	}
	for k, v := range s.items {
		snap.Items[k] = v
	}
	for k, v := range s.rows {
		snap.Rows[k] = v
	}
	for k, v := range s.batches {
		snap.Batches[k] = v
	}
	return snap
}

func (s *memStore) batch(id uuid.UUID) inventory.StockBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

func (s *memStore) sale(id uuid.UUID) sales.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sales[id]
}

type memSales struct{ s *memStore }

func (r memSales) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.IsDeleted() {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r memSales) Save(_ context.Context, sale *sales.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = *sale
	return nil
}

func (r memSales) AdjustTotal(_ context.Context, id uuid.UUID, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.IsDeleted() {
		return shared.ErrNotFound
	}
	sale.TotalAmount += delta
	r.s.sales[id] = sale
	return nil
}

func (r memSales) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	if r.s.onSoftDelete != nil {
		if err := r.s.onSoftDelete(id); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok || sale.IsDeleted() {
		return shared.ErrNotFound
	}
	sale.DeletedAt = &at
	sale.UpdatedAt = at
	r.s.sales[id] = sale
	return nil
}

func (r memSales) Restore(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return shared.ErrNotFound
	}
	sale.DeletedAt = nil
	r.s.sales[id] = sale
	return nil
}

type memItems struct{ s *memStore }

func (r memItems) FindByID(_ context.Context, id uuid.UUID) (*sales.SaleItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (r memItems) FindBySale(_ context.Context, saleID uuid.UUID) ([]sales.SaleItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []sales.SaleItem
	for _, item := range r.s.items {
		if item.SaleID == saleID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memItems) Create(_ context.Context, item *sales.SaleItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) Update(_ context.Context, item *sales.SaleItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.items, id)
	return nil
}

type memItemBatches struct{ s *memStore }

func (r memItemBatches) FindBySaleItem(_ context.Context, saleItemID uuid.UUID) ([]sales.SaleItemBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []sales.SaleItemBatch
	for _, row := range r.s.rows {
		if row.SaleItemID == saleItemID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r memItemBatches) CreateBatch(_ context.Context, rows []sales.SaleItemBatch) error {
	if r.s.onCreateBatch != nil {
		if err := r.s.onCreateBatch(rows); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range rows {
		r.s.rows[row.ID] = row
	}
	return nil
}

func (r memItemBatches) DeleteBySaleItem(_ context.Context, saleItemID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, row := range r.s.rows {
		if row.SaleItemID == saleItemID {
			delete(r.s.rows, id)
		}
	}
	return nil
}

type memBatches struct{ s *memStore }

func (r memBatches) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, inventory.ErrBatchNotFound
	}
	return &b, nil
}

func (r memBatches) ListEligible(_ context.Context, variantID uuid.UUID) ([]inventory.StockBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []inventory.StockBatch
	for _, b := range r.s.batches {
		if b.ProductVariantID == variantID && b.IsEligible() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r memBatches) FindByVariant(ctx context.Context, variantID uuid.UUID, _ shared.Filter) ([]inventory.StockBatch, error) {
	return r.ListEligible(ctx, variantID)
}

func (r memBatches) AdjustRemaining(_ context.Context, batchID uuid.UUID, delta int64) error {
	if r.s.onAdjust != nil {
		if err := r.s.onAdjust(batchID, delta); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[batchID]
	if !ok {
		return inventory.ErrBatchNotFound
	}
	if !b.CanAdjust(delta) {
		return inventory.NewBatchQuantityConflictError(batchID, b.QuantityRemaining, delta)
	}
	b.QuantityRemaining += delta
	r.s.batches[batchID] = b
	return nil
}

func (r memBatches) Save(_ context.Context, batch *inventory.StockBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.batches[batch.ID] = *batch
	return nil
}

type memVariants struct{ s *memStore }

func (r memVariants) FindByID(_ context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.variants[id] {
		return nil, shared.ErrNotFound
	}
	v := &catalog.ProductVariant{BaseEntity: shared.NewBaseEntity()}
	v.ID = id
	return v, nil
}

func (r memVariants) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.variants[id], nil
}
