package handlers

import (
	"strconv"

	"orderhub/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// pagination reads ?limit and ?offset, applying the shared bounds.
func pagination(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, common.NewValidationError("limit", "must be an integer")
		}
		limit = n
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, common.NewValidationError("offset", "must be an integer")
		}
		offset = n
	}
	return common.ValidatePaginationParams(limit, offset)
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, common.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
