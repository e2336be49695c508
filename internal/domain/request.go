package domain

// CreateRunRequest is the request body for POST /v1/runs.
type CreateRunRequest struct {
	AgentID        string `json:"agent_id"`
	InputText      string `json:"input_text"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// CreateAgentRequest is the request body for POST /v1/agents.
type CreateAgentRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	SystemPrompt string   `json:"system_prompt"`
	KBEnabled    bool     `json:"kb_enabled"`
	Tools        []string `json:"tools,omitempty"`
}

// CreateConversationRequest is the request body for POST /v1/conversations.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// RunWithSteps is the response shape for GET /v1/runs/:run_id.
type RunWithSteps struct {
	Run
	Steps []RunStep `json:"steps"`
}
