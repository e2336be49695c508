// Package domain defines the core domain models for agentforge.
package domain

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// StepType categorizes a recorded execution step.
type StepType string

const (
	StepTypeLLMCall     StepType = "llm_call"
	StepTypeToolCall    StepType = "tool_call"
	StepTypeToolResult  StepType = "tool_result"
	StepTypeError       StepType = "error"
	StepTypeFinalAnswer StepType = "final_answer"
)

// StreamEventKind represents the kind of a live status stream event.
type StreamEventKind string

const (
	StreamEventStatus    StreamEventKind = "status"
	StreamEventHeartbeat StreamEventKind = "heartbeat"
	StreamEventComplete  StreamEventKind = "complete"
	StreamEventError     StreamEventKind = "error"
	StreamEventTimeout   StreamEventKind = "timeout"
)

// Closing reports whether consumers must treat the event as stream-closing.
func (k StreamEventKind) Closing() bool {
	return k == StreamEventComplete || k == StreamEventError || k == StreamEventTimeout
}
