package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseOptionalUUIDQuery parses an optional UUID query parameter.
// Returns nil when the parameter is absent.
func parseOptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
