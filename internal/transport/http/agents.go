package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentforge/agentforge/internal/domain"
)

// CreateAgent registers a new agent configuration.
// POST /v1/agents
func (h *Handler) CreateAgent(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	agent, err := h.svc.CreateAgent(ctx, userID(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, agent)
}

// ListAgents lists the caller's agents.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	ctx := c.Request().Context()

	agents, err := h.svc.ListAgents(ctx, userID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"agents": agents})
}

// GetAgent gets a specific agent by ID.
// GET /v1/agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	ctx := c.Request().Context()

	agent, err := h.svc.GetAgent(ctx, userID(c), c.Param("agent_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, agent)
}

// DeleteAgent removes an agent.
// DELETE /v1/agents/:agent_id
func (h *Handler) DeleteAgent(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.svc.DeleteAgent(ctx, userID(c), c.Param("agent_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}
