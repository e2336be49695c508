package tools

import (
	"context"
	"encoding/json"
	"math"

	"github.com/agentforge/agentforge/internal/adapter/vector"
	"github.com/agentforge/agentforge/internal/domain"
)

// VectorSearchTool searches the knowledge base for semantically relevant
// passages. A backing-store failure surfaces as an error envelope.
type VectorSearchTool struct {
	client *vector.Client
}

// NewVectorSearchTool creates the vector_search tool. A nil client is allowed
// and reports the store as unconfigured at invoke time.
func NewVectorSearchTool(client *vector.Client) *VectorSearchTool {
	return &VectorSearchTool{client: client}
}

func (t *VectorSearchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "vector_search",
		Description: "Search the knowledge base for relevant information using semantic similarity. Use this when you need to find specific facts or context from uploaded documents.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The search query to find relevant information"
				},
				"top_k": {
					"type": "integer",
					"description": "Number of results to return (default: 5)"
				}
			},
			"required": ["query"]
		}`),
	}
}

type vectorSearchArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (t *VectorSearchTool) Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result {
	var a vectorSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Errorf("vector search failed: %v", err)
	}
	if a.TopK <= 0 {
		a.TopK = 5
	}
	if t.client == nil {
		return Errorf("vector search failed: vector store not configured")
	}

	hits, err := t.client.Search(ctx, inv.UserID, inv.AgentID, a.Query, a.TopK)
	if err != nil {
		return Errorf("vector search failed: %v", err)
	}

	results := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		results = append(results, map[string]any{
			"text":            h.Text,
			"relevance_score": math.Round(h.Score*1000) / 1000,
		})
	}
	return Result{Data: map[string]any{
		"results": results,
		"count":   len(results),
	}}
}
