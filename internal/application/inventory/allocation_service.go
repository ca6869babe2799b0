package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// AllocationService satisfies order lines from received batches. It builds
// a FIFO plan over a snapshot of the available batches, then applies the
// plan, records the consuming movement and saves everything with
// optimistic locking; a version conflict means another allocation won the
// race, and the whole attempt is replanned against fresh batches.
type AllocationService struct {
	productRepo    inventory.ProductRepository
	batchRepo      inventory.BatchRepository
	allocator      *inventory.BatchAllocator
	ledger         *inventory.StockLedger
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	productRepo inventory.ProductRepository,
	batchRepo inventory.BatchRepository,
	allocator *inventory.BatchAllocator,
	ledger *inventory.StockLedger,
	txScope TransactionScope,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		productRepo: productRepo,
		batchRepo:   batchRepo,
		allocator:   allocator,
		ledger:      ledger,
		txScope:     txScope,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AllocationService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// movementTypeForRequest maps an allocate request onto a movement type,
// defaulting to a standard sale.
func movementTypeForRequest(req AllocateRequest) (inventory.MovementType, error) {
	if req.MovementType == "" {
		return inventory.MovementTypeSale, nil
	}
	movementType := inventory.MovementType(req.MovementType)
	if !movementType.IsValid() {
		return "", shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type: "+req.MovementType)
	}
	return movementType, nil
}

// Allocate satisfies a single order line from available batches in FIFO
// order. Either the full quantity is allocated and the consuming movement
// recorded, or nothing changes: insufficient stock fails before any batch
// is touched, and a concurrent conflict rolls the attempt back and
// replans. After MaxConflictRetries conflicts the call gives up with
// ErrAllocationConflict.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest, now time.Time) (*AllocationResponse, error) {
	movementType, err := movementTypeForRequest(req)
	if err != nil {
		return nil, err
	}
	criteria := inventory.AllocationCriteria{WarehouseID: req.WarehouseID}

	var plan *inventory.AllocationPlan
	var product *inventory.Product

	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			product, err = repos.ProductRepo().FindByID(ctx, req.ProductID)
			if err != nil {
				return err
			}

			batches, err := repos.BatchRepo().FindAvailableByProduct(ctx, req.ProductID, req.WarehouseID)
			if err != nil {
				return err
			}

			plan, err = s.allocator.BuildPlan(req.ProductID, req.Quantity, batches, criteria)
			if err != nil {
				return err
			}
			if err := s.allocator.ApplyPlan(batches, plan, now); err != nil {
				return err
			}

			touched := make(map[uuid.UUID]bool, len(plan.Entries))
			for _, entry := range plan.Entries {
				touched[entry.BatchID] = true
			}
			for _, batch := range batches {
				if !touched[batch.ID] {
					continue
				}
				if err := repos.BatchRepo().SaveWithLock(ctx, batch); err != nil {
					return err
				}
			}

			meta := inventory.AdjustmentMeta{WarehouseID: req.WarehouseID}
			if req.ReferenceKind != "" || req.ReferenceID != "" {
				meta.Reference = inventory.NewReference(inventory.ReferenceKind(req.ReferenceKind), req.ReferenceID)
			}
			movement, err := s.ledger.Adjust(product, req.Quantity.Neg(), movementType, meta, now)
			if err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
			return repos.MovementRepo().Create(ctx, movement)
		})
		if err == nil {
			product.AddDomainEvent(inventory.NewAllocationAppliedEvent(plan))
			s.publishEvents(ctx, product.GetDomainEvents()...)
			product.ClearDomainEvents()

			response := ToAllocationResponse(plan, product.StockQuantity)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		s.logger.Debug("allocation conflict, replanning",
			zap.String("product_id", req.ProductID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, shared.ErrAllocationConflict
}

// AllocateBulk allocates every line of a bulk order with partial-failure
// semantics: a line that cannot be satisfied is logged and reported in
// the response, and the remaining lines still proceed.
func (s *AllocationService) AllocateBulk(ctx context.Context, req BulkAllocateRequest, now time.Time) (*BulkAllocateResponse, error) {
	response := &BulkAllocateResponse{
		ReferenceID: req.ReferenceID,
		Allocated:   make([]AllocationResponse, 0, len(req.Lines)),
		Failed:      make([]BulkAllocateFailure, 0),
	}

	for _, line := range req.Lines {
		lineReq := AllocateRequest{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			WarehouseID:   req.WarehouseID,
			MovementType:  inventory.MovementTypeBulkOrder.String(),
			ReferenceKind: inventory.ReferenceKindBulkOrder.String(),
			ReferenceID:   req.ReferenceID,
		}

		allocated, err := s.Allocate(ctx, lineReq, now)
		if err != nil {
			failure := BulkAllocateFailure{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Code:      "ALLOCATION_FAILED",
				Message:   err.Error(),
			}
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				failure.Code = domainErr.Code
			}
			response.Failed = append(response.Failed, failure)

			s.logger.Warn("bulk order line allocation failed",
				zap.String("reference_id", req.ReferenceID),
				zap.String("product_id", line.ProductID.String()),
				zap.String("quantity", line.Quantity.String()),
				zap.String("code", failure.Code),
				zap.Error(err),
			)
			continue
		}
		response.Allocated = append(response.Allocated, *allocated)
	}

	return response, nil
}

// ReceiveBatch registers a batch of received stock and records the
// corresponding inbound movement in one transaction.
func (s *AllocationService) ReceiveBatch(ctx context.Context, req ReceiveBatchRequest, now time.Time) (*BatchResponse, error) {
	batch, err := inventory.NewInventoryBatch(req.ProductID, req.WarehouseID, req.Quantity, req.UnitCost, now)
	if err != nil {
		return nil, err
	}
	if req.BatchNumber != "" {
		batch.WithBatchNumber(req.BatchNumber)
	}

	var product *inventory.Product

	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			product, err = repos.ProductRepo().FindByID(ctx, req.ProductID)
			if err != nil {
				return err
			}

			meta := inventory.AdjustmentMeta{
				WarehouseID: &req.WarehouseID,
				UnitCost:    req.UnitCost,
				BatchNumber: req.BatchNumber,
			}
			if req.ReferenceID != "" {
				meta.Reference = inventory.NewReference(inventory.ReferenceKindPurchaseOrder, req.ReferenceID)
			}
			movement, err := s.ledger.Adjust(product, req.Quantity, inventory.MovementTypePurchase, meta, now)
			if err != nil {
				return err
			}

			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
			return repos.MovementRepo().Create(ctx, movement)
		})
		if err == nil {
			product.AddDomainEvent(inventory.NewBatchReceivedEvent(batch))
			s.publishEvents(ctx, product.GetDomainEvents()...)
			product.ClearDomainEvents()

			response := ToBatchResponse(batch)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
	}

	return nil, shared.ErrAllocationConflict
}

// CheckAvailability reports whether a quantity could be allocated right now
func (s *AllocationService) CheckAvailability(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, warehouseID *uuid.UUID) (*AvailabilityResponse, error) {
	batches, err := s.batchRepo.FindAvailableByProduct(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	criteria := inventory.AllocationCriteria{WarehouseID: warehouseID}
	available := inventory.TotalAvailable(batches, criteria)

	return &AvailabilityResponse{
		ProductID:  productID,
		Requested:  quantity,
		Available:  available,
		Sufficient: available.GreaterThanOrEqual(quantity),
	}, nil
}

// ListBatches returns all batches for a product including exhausted ones
func (s *AllocationService) ListBatches(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		responses = append(responses, ToBatchResponse(batch))
	}
	return responses, nil
}
