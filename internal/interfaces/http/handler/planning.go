package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	planningapp "github.com/stockplan/backend/internal/application/planning"
)

// PlanningHandler handles demand forecasting and reorder planning endpoints
type PlanningHandler struct {
	BaseHandler
	planningService *planningapp.PlanningService
	defaultHorizon  int
}

// NewPlanningHandler creates a new PlanningHandler
func NewPlanningHandler(planningService *planningapp.PlanningService, defaultHorizon int) *PlanningHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = 3
	}
	return &PlanningHandler{
		planningService: planningService,
		defaultHorizon:  defaultHorizon,
	}
}

// RegisterRoutes registers planning routes on the API group
func (h *PlanningHandler) RegisterRoutes(rg *gin.RouterGroup) {
	planning := rg.Group("/planning/products/:id")
	{
		planning.GET("/forecast", h.Forecast)
		planning.GET("/levels", h.Levels)
		planning.POST("/low-stock-check", h.CheckLowStock)
	}
}

// Forecast returns monthly demand predictions for a product
func (h *PlanningHandler) Forecast(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	horizon := h.defaultHorizon
	if raw := c.Query("horizon_months"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "horizon_months must be an integer")
			return
		}
	}

	points, err := h.planningService.Forecast(c.Request.Context(), productID, horizon, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, points)
}

// Levels returns the computed reorder point, safety stock, EOQ and
// maximum stock level for a product
func (h *PlanningHandler) Levels(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	levels, err := h.planningService.Optimize(c.Request.Context(), productID, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, levels)
}

// CheckLowStock runs an on-demand low-stock check for a product,
// publishing a replenishment signal when stock is at or below the
// reorder point
func (h *PlanningHandler) CheckLowStock(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	result, err := h.planningService.CheckLowStock(c.Request.Context(), productID, time.Now().UTC())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
