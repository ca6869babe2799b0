package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is invalid, empty, or not in
// the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"sku":                 true,
	"name":                true,
	"stock_quantity":      true,
	"average_cost":        true,
	"optimal_stock_level": true,
	"lead_time_days":      true,
}

// BatchSortFields contains allowed sort fields for inventory batches
var BatchSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"product_id":         true,
	"warehouse_id":       true,
	"batch_number":       true,
	"quantity_received":  true,
	"quantity_available": true,
	"unit_cost":          true,
	"received_at":        true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"product_id":    true,
	"warehouse_id":  true,
	"movement_type": true,
	"quantity":      true,
	"occurred_at":   true,
}
