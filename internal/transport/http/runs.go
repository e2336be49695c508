package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agentforge/agentforge/internal/domain"
)

// CreateRun submits a new run for background execution.
// POST /v1/runs
func (h *Handler) CreateRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	run, err := h.svc.CreateRun(ctx, userID(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, run)
}

// ListRuns lists the caller's runs, optionally filtered by agent.
// GET /v1/runs?agent_id=&limit=
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	runs, err := h.svc.ListRuns(ctx, userID(c), c.QueryParam("agent_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

// GetRun returns a run with its recorded steps.
// GET /v1/runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := h.svc.GetRun(ctx, userID(c), c.Param("run_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}

// DeleteRun removes a run and its steps.
// DELETE /v1/runs/:run_id
func (h *Handler) DeleteRun(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.svc.DeleteRun(ctx, userID(c), c.Param("run_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}
