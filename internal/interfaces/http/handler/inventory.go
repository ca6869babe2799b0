package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/stockplan/backend/internal/application/inventory"
	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/interfaces/http/dto"
)

// InventoryHandler handles product, stock ledger and allocation endpoints
type InventoryHandler struct {
	BaseHandler
	ledgerService     *inventoryapp.LedgerService
	allocationService *inventoryapp.AllocationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	ledgerService *inventoryapp.LedgerService,
	allocationService *inventoryapp.AllocationService,
) *InventoryHandler {
	return &InventoryHandler{
		ledgerService:     ledgerService,
		allocationService: allocationService,
	}
}

// RegisterRoutes registers inventory routes on the API group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/:id/movements", h.ListMovements)
		products.GET("/:id/batches", h.ListBatches)
		products.GET("/:id/availability", h.CheckAvailability)
	}
	rg.GET("/products-by-sku/:sku", h.GetProductBySKU)

	inv := rg.Group("/inventory")
	{
		inv.POST("/adjustments", h.Adjust)
		inv.POST("/batches", h.ReceiveBatch)
		inv.POST("/allocations", h.Allocate)
		inv.POST("/allocations/bulk", h.AllocateBulk)
		inv.GET("/movements", h.GetMovementsByReference)
	}
}

// CreateProduct registers a new product with zero stock
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req inventoryapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.ledgerService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// GetProduct retrieves a product by ID
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.ledgerService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// GetProductBySKU retrieves a product by SKU
func (h *InventoryHandler) GetProductBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	product, err := h.ledgerService.GetProductBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// ListProducts lists products with pagination
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.ledgerService.ListProducts(c.Request.Context(), listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Adjust records a stock movement against a product
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	movement, err := h.ledgerService.Adjust(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, movement)
}

// ListMovements lists the movement log for a product
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := listFilter(req)
	filter.OrderBy = "occurred_at"
	if movementType := c.Query("movement_type"); movementType != "" {
		filter.Filters["movement_type"] = movementType
	}

	result, err := h.ledgerService.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetMovementsByReference finds the movements tagged with a reference
func (h *InventoryHandler) GetMovementsByReference(c *gin.Context) {
	kind := inventory.ReferenceKind(c.Query("reference_kind"))
	id := c.Query("reference_id")
	if kind == "" || id == "" {
		h.BadRequest(c, "reference_kind and reference_id are required")
		return
	}

	movements, err := h.ledgerService.GetMovementsByReference(c.Request.Context(), kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movements)
}

// ReceiveBatch receives a purchased batch into stock
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	var req inventoryapp.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	batch, err := h.allocationService.ReceiveBatch(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// ListBatches lists batches for a product
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	filter := listFilter(dto.DefaultListRequest())
	batches, err := h.allocationService.ListBatches(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// Allocate allocates stock for one order line against FIFO batches
func (h *InventoryHandler) Allocate(c *gin.Context) {
	var req inventoryapp.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	allocation, err := h.allocationService.Allocate(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, allocation)
}

// AllocateBulk allocates stock for a multi-line bulk order.
// Lines that cannot be covered are reported; the rest proceed.
func (h *InventoryHandler) AllocateBulk(c *gin.Context) {
	var req inventoryapp.BulkAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.allocationService.AllocateBulk(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CheckAvailability reports whether a quantity could be allocated now
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	quantity, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil || !quantity.IsPositive() {
		h.BadRequest(c, "quantity must be a positive number")
		return
	}

	warehouseID, err := parseOptionalUUIDQuery(c, "warehouse_id")
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	availability, err := h.allocationService.CheckAvailability(c.Request.Context(), productID, quantity, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, availability)
}
