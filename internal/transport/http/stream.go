package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentforge/agentforge/internal/domain"
)

// StreamRun streams run progress as server-sent events. The stream closes
// after the first terminal event (complete, error or timeout) or when the
// client disconnects.
// GET /v1/runs/:run_id/stream
func (h *Handler) StreamRun(c echo.Context) error {
	ctx := c.Request().Context()

	res := c.Response()
	flusher, _ := res.Writer.(http.Flusher)
	wrote := false

	// Headers go out with the first event so a rejected watch can still
	// answer with a plain JSON error.
	emit := func(ev domain.StreamEvent) error {
		if !wrote {
			res.Header().Set(echo.HeaderContentType, "text/event-stream")
			res.Header().Set("Cache-Control", "no-cache")
			res.Header().Set("Connection", "keep-alive")
			res.WriteHeader(http.StatusOK)
			wrote = true
		}
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	err := h.svc.WatchRun(ctx, userID(c), c.Param("run_id"), emit)
	if err != nil && !wrote {
		return writeError(c, err)
	}
	return nil
}
