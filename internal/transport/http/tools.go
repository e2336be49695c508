package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListTools lists the registered tool definitions.
// GET /v1/tools
func (h *Handler) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tools": h.svc.Gateway().Definitions(),
	})
}
