package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockplan/backend/internal/domain/shared"
)

// AllocationEntry records how much of the requested quantity a single
// batch contributes to an allocation plan.
type AllocationEntry struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number,omitempty"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// AllocationPlan is an ordered sequence of batch consumptions whose
// quantities sum exactly to the requested amount. A plan is computed
// without touching any batch; ApplyPlan makes it effective afterwards,
// which is what gives allocation its all-or-nothing guarantee.
type AllocationPlan struct {
	ProductID   uuid.UUID         `json:"product_id"`
	Requested   decimal.Decimal   `json:"requested"`
	Entries     []AllocationEntry `json:"entries"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	AverageCost decimal.Decimal   `json:"average_cost"`
}

// TotalAllocated returns the sum of entry quantities
func (p *AllocationPlan) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.Entries {
		total = total.Add(e.Quantity)
	}
	return total
}

// AllocationCriteria narrows the batches an allocation may consume
type AllocationCriteria struct {
	WarehouseID *uuid.UUID
}

// Matches returns true if the batch satisfies the criteria
func (c AllocationCriteria) Matches(batch *InventoryBatch) bool {
	if c.WarehouseID != nil && batch.WarehouseID != *c.WarehouseID {
		return false
	}
	return true
}

// BatchAllocator consumes received batches in strict FIFO order to satisfy
// allocation requests. Planning and application are split on purpose:
// BuildPlan never mutates a batch, so an insufficient-stock failure leaves
// every batch exactly as it was.
type BatchAllocator struct{}

// NewBatchAllocator creates a new batch allocator
func NewBatchAllocator() *BatchAllocator {
	return &BatchAllocator{}
}

// BuildPlan computes a FIFO allocation plan over the given batches.
// Batches are consumed in ascending ReceivedAt order (batch ID breaks
// ties deterministically). Returns ErrInsufficientStock when the
// available total cannot cover the request; no batch is modified in
// either outcome.
func (a *BatchAllocator) BuildPlan(
	productID uuid.UUID,
	requested decimal.Decimal,
	batches []*InventoryBatch,
	criteria AllocationCriteria,
) (*AllocationPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	candidates := make([]*InventoryBatch, 0, len(batches))
	available := decimal.Zero
	for _, batch := range batches {
		if batch.ProductID != productID || !batch.HasStock() || !criteria.Matches(batch) {
			continue
		}
		candidates = append(candidates, batch)
		available = available.Add(batch.QuantityAvailable)
	}

	if available.LessThan(requested) {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			"Insufficient stock: available="+available.String()+", requested="+requested.String())
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ReceivedAt.Equal(candidates[j].ReceivedAt) {
			return candidates[i].ReceivedAt.Before(candidates[j].ReceivedAt)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	plan := &AllocationPlan{
		ProductID: productID,
		Requested: requested,
		Entries:   make([]AllocationEntry, 0),
		TotalCost: decimal.Zero,
	}

	remaining := requested
	for _, batch := range candidates {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, batch.QuantityAvailable)
		plan.Entries = append(plan.Entries, AllocationEntry{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			WarehouseID: batch.WarehouseID,
			Quantity:    take,
			UnitCost:    batch.UnitCost,
		})
		plan.TotalCost = plan.TotalCost.Add(take.Mul(batch.UnitCost))
		remaining = remaining.Sub(take)
	}

	if plan.TotalAllocated().GreaterThan(decimal.Zero) {
		plan.AverageCost = plan.TotalCost.Div(plan.TotalAllocated()).Round(4)
	}

	return plan, nil
}

// ApplyPlan decrements batch availability according to the plan. It is
// called only after BuildPlan succeeded, so every deduction is known to
// fit; a mismatch means the batches changed since planning and the caller
// must retry against fresh state.
func (a *BatchAllocator) ApplyPlan(batches []*InventoryBatch, plan *AllocationPlan, now time.Time) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Allocation plan cannot be nil")
	}

	byID := make(map[uuid.UUID]*InventoryBatch, len(batches))
	for _, batch := range batches {
		byID[batch.ID] = batch
	}

	for _, entry := range plan.Entries {
		batch, ok := byID[entry.BatchID]
		if !ok {
			return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found: "+entry.BatchID.String())
		}
		if err := batch.Deduct(entry.Quantity, now); err != nil {
			return err
		}
	}

	return nil
}

// TotalAvailable sums the available quantity across batches that match
// the criteria. Useful for previews and handler responses.
func TotalAvailable(batches []*InventoryBatch, criteria AllocationCriteria) decimal.Decimal {
	total := decimal.Zero
	for _, batch := range batches {
		if batch.HasStock() && criteria.Matches(batch) {
			total = total.Add(batch.QuantityAvailable)
		}
	}
	return total
}
