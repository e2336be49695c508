package domain

import (
	"encoding/json"
	"time"
)

// Run represents one task-execution attempt by an agent.
type Run struct {
	RunID          string     `json:"run_id"`
	UserID         string     `json:"user_id"`
	AgentID        string     `json:"agent_id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Status         RunStatus  `json:"status"`
	InputText      string     `json:"input_text"`
	OutputText     string     `json:"output_text,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunStep is one recorded action within a run. Steps are created exactly once
// and never updated; step_order is strictly increasing per run.
type RunStep struct {
	StepID       string          `json:"id"`
	RunID        string          `json:"run_id"`
	StepOrder    int             `json:"step_order"`
	StepType     StepType        `json:"step_type"`
	InputData    json.RawMessage `json:"input_data,omitempty"`
	OutputData   json.RawMessage `json:"output_data,omitempty"`
	ToolName     string          `json:"tool_name,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"timestamp"`
	DurationMs   *int64          `json:"duration_ms,omitempty"`
}

// StepDraft is what the orchestrator and the reasoning loop hand to the step
// recorder; the recorder assigns identity and order.
type StepDraft struct {
	StepType     StepType
	InputData    map[string]any
	OutputData   map[string]any
	ToolName     string
	ErrorMessage string
	DurationMs   *int64
}

// AgentConfig is a named agent configuration: prompt, capability set and the
// knowledge-base toggle.
type AgentConfig struct {
	AgentID      string    `json:"agent_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	KBEnabled    bool      `json:"kb_enabled"`
	Tools        []string  `json:"tools"`
	CreatedAt    time.Time `json:"created_at"`
}

// Conversation is a persistent message history shared across runs.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Message is a single turn within a conversation.
type Message struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"` // user, assistant
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Document is an uploaded file's metadata; content is read from disk by the
// file_fetch tool. Extraction and indexing happen outside this service.
type Document struct {
	DocID     string    `json:"doc_id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
}
