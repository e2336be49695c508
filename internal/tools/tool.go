// Package tools implements the capability set the reasoning loop can invoke
// and the gateway that validates and executes invocations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentforge/agentforge/internal/domain"
)

// Invocation is the trusted execution context merged into every tool call.
// It comes from the run being executed, never from the model.
type Invocation struct {
	UserID  string
	AgentID string
	RunID   string
}

// Result is the envelope every tool invocation resolves to. Exactly one of
// Data or Error is meaningful; a tool failure is data for the reasoning loop,
// not a Go error.
type Result struct {
	Data  map[string]any
	Error string
}

// Errorf builds an error result.
func Errorf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Payload returns the map fed back into the reasoning transcript.
func (r Result) Payload() map[string]any {
	if r.Error != "" {
		return map[string]any{"error": r.Error}
	}
	return r.Data
}

// MarshalJSON encodes the envelope the way it appears in the transcript.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

// Tool is one named capability with a schema-described argument shape.
// Invoke receives arguments already validated against the schema.
type Tool interface {
	Definition() domain.ToolDefinition
	Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result
}
