package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/salesdesk/backend/internal/domain/shared"
)

// parseID reads a numeric path parameter. A non-numeric value is a
// validation failure, not a missing resource: the route matched, the
// input did not.
func parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, shared.NewValidation(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return uint(id), nil
}

// parsePage reads the skip/take query parameters. Absent parameters fall
// back to the default window; out-of-range values are clamped.
func parsePage(c *gin.Context) (shared.Page, error) {
	page := shared.DefaultPage()

	if raw := c.Query("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return shared.Page{}, shared.NewValidation(fmt.Sprintf("Invalid skip: %q", raw))
		}
		page.Skip = skip
	}

	if raw := c.Query("take"); raw != "" {
		take, err := strconv.Atoi(raw)
		if err != nil {
			return shared.Page{}, shared.NewValidation(fmt.Sprintf("Invalid take: %q", raw))
		}
		page.Take = take
	}

	return page.Normalize(), nil
}
