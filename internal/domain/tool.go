package domain

import "encoding/json"

// ToolDefinition advertises a capability to the model: name, natural-language
// description and a JSON-Schema parameter shape.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
