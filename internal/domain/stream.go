package domain

// StreamEvent is one server-push event on a run's live status stream.
type StreamEvent struct {
	Kind StreamEventKind `json:"-"`
	Data map[string]any  `json:"data"`
}
