package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// In-memory repositories with the same optimistic-locking behavior as the
// database-backed ones: SaveWithLock compares the stored version against
// the version the caller loaded and rejects stale writes.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]inventory.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]inventory.Product)}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.SKU == sku {
			copied := product
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]inventory.Product, 0, len(r.products))
	for _, product := range r.products {
		all = append(all, product)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	return all, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) SaveWithLock(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok {
		return shared.ErrNotFound
	}
	// The caller incremented the version in memory; the write is valid
	// only if it is exactly one ahead of what is stored.
	if stored.Version != product.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]inventory.InventoryBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]inventory.InventoryBatch)}
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := batch
	return &copied, nil
}

func (r *fakeBatchRepo) FindAvailableByProduct(_ context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*inventory.InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.InventoryBatch, 0)
	for _, batch := range r.batches {
		if batch.ProductID != productID || !batch.HasStock() {
			continue
		}
		if warehouseID != nil && batch.WarehouseID != *warehouseID {
			continue
		}
		copied := batch
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReceivedAt.Before(result[j].ReceivedAt) })
	return result, nil
}

func (r *fakeBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]*inventory.InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.InventoryBatch, 0)
	for _, batch := range r.batches {
		if batch.ProductID != productID {
			continue
		}
		copied := batch
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReceivedAt.Before(result[j].ReceivedAt) })
	return result, nil
}

func (r *fakeBatchRepo) Save(_ context.Context, batch *inventory.InventoryBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = *batch
	return nil
}

func (r *fakeBatchRepo) SaveWithLock(_ context.Context, batch *inventory.InventoryBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[batch.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != batch.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.batches[batch.ID] = *batch
	return nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []inventory.StockMovement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: make([]inventory.StockMovement, 0)}
}

func (r *fakeMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.movements {
		if r.movements[i].ID == id {
			copied := r.movements[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) FindByProductAndTypeSince(_ context.Context, productID uuid.UUID, movementType inventory.MovementType, since time.Time) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID && m.MovementType == movementType && !m.OccurredAt.Before(since) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, ref inventory.Reference) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.Reference == ref {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) Create(_ context.Context, movement *inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			count++
		}
	}
	return count, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (c *capturedEvents) Publish(_ context.Context, events ...shared.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	return nil
}

func (c *capturedEvents) all() []shared.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]shared.DomainEvent(nil), c.events...)
}

var (
	_ inventory.ProductRepository  = (*fakeProductRepo)(nil)
	_ inventory.BatchRepository    = (*fakeBatchRepo)(nil)
	_ inventory.MovementRepository = (*fakeMovementRepo)(nil)
	_ shared.EventPublisher        = (*capturedEvents)(nil)
)
