package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentforge/agentforge/internal/domain"
)

// CreateConversation opens a new conversation.
// POST /v1/conversations
func (h *Handler) CreateConversation(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	conv, err := h.svc.CreateConversation(ctx, userID(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, conv)
}

// GetConversation returns a conversation with its recent messages.
// GET /v1/conversations/:conversation_id
func (h *Handler) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()

	conv, messages, err := h.svc.GetConversation(ctx, userID(c), c.Param("conversation_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}
