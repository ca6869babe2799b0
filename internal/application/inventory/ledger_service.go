package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/domain/shared"
)

// MaxConflictRetries bounds how often a stock operation is retried after an
// optimistic-lock conflict before giving up with ErrAllocationConflict.
const MaxConflictRetries = 3

// LedgerService orchestrates stock movements: it loads the product, lets
// the domain ledger compute the adjustment, and persists product and
// movement atomically with optimistic locking.
type LedgerService struct {
	productRepo    inventory.ProductRepository
	movementRepo   inventory.MovementRepository
	ledger         *inventory.StockLedger
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	productRepo inventory.ProductRepository,
	movementRepo inventory.MovementRepository,
	ledger *inventory.StockLedger,
	txScope TransactionScope,
) *LedgerService {
	return &LedgerService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		txScope:      txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all pending domain events from the product
func (s *LedgerService) publishDomainEvents(ctx context.Context, product *inventory.Product) {
	if s.eventPublisher == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	product.ClearDomainEvents()
}

// CreateProduct registers a new product with zero stock
func (s *LedgerService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if existing, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	product, err := inventory.NewProduct(req.SKU, req.Name)
	if err != nil {
		return nil, err
	}
	product.OrderingCost = req.OrderingCost
	product.HoldingCostRate = req.HoldingCostRate
	product.LeadTimeDays = req.LeadTimeDays

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetProduct retrieves a product by ID
func (s *LedgerService) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetProductBySKU retrieves a product by SKU
func (s *LedgerService) GetProductBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// ListProducts lists products with pagination
func (s *LedgerService) ListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Adjust records a signed stock movement against a product. The product
// update and the movement append happen in one transaction; on an
// optimistic-lock conflict the whole operation is retried against fresh
// state, up to MaxConflictRetries times.
func (s *LedgerService) Adjust(ctx context.Context, req AdjustStockRequest, now time.Time) (*MovementResponse, error) {
	movementType := inventory.MovementType(req.MovementType)
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown movement type: "+req.MovementType)
	}

	meta := inventory.AdjustmentMeta{
		WarehouseID: req.WarehouseID,
		BatchNumber: req.BatchNumber,
		UnitCost:    req.UnitCost,
	}
	if req.ReferenceKind != "" || req.ReferenceID != "" {
		meta.Reference = inventory.NewReference(inventory.ReferenceKind(req.ReferenceKind), req.ReferenceID)
	}

	var movement *inventory.StockMovement
	var product *inventory.Product

	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			product, err = repos.ProductRepo().FindByID(ctx, req.ProductID)
			if err != nil {
				return err
			}

			movement, err = s.ledger.Adjust(product, req.Quantity, movementType, meta, now)
			if err != nil {
				return err
			}

			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
			return repos.MovementRepo().Create(ctx, movement)
		})
		if err == nil {
			s.publishDomainEvents(ctx, product)
			response := ToMovementResponse(movement)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
	}

	return nil, shared.ErrAllocationConflict
}

// ListMovements returns the movement log for a product, newest first
func (s *LedgerService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[MovementResponse], error) {
	movements, err := s.movementRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.movementRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetMovementsByReference returns all movements tagged with a reference,
// e.g. every line of a bulk order.
func (s *LedgerService) GetMovementsByReference(ctx context.Context, kind inventory.ReferenceKind, id string) ([]MovementResponse, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Unknown reference kind: "+kind.String())
	}
	movements, err := s.movementRepo.FindByReference(ctx, inventory.NewReference(kind, id))
	if err != nil {
		return nil, err
	}

	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	return responses, nil
}
