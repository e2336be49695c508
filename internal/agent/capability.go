// Package agent implements the reasoning loop that turns a task into a final
// answer by alternating model calls and tool invocations.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agentforge/agentforge/internal/adapter/vector"
	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/tools"
)

// Capability is one action the loop may take: a definition advertised to the
// model plus a bound invoker. An invoker error is fatal to the loop; gateway
// backed invokers never error because the gateway envelopes every failure.
type Capability struct {
	Definition domain.ToolDefinition
	Invoke     func(ctx context.Context, args json.RawMessage) (string, error)
}

// GatewayCapability binds a registered tool to the gateway for an invocation
// context. The result envelope (success or structured error) is serialized
// for the transcript.
func GatewayCapability(def domain.ToolDefinition, gw *tools.Gateway, inv tools.Invocation) Capability {
	return Capability{
		Definition: def,
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			res := gw.Invoke(ctx, def.Name, args, inv)
			payload, err := json.Marshal(res)
			if err != nil {
				return "", err
			}
			return string(payload), nil
		},
	}
}

// KnowledgeBaseCapability is the retrieval capability auto-injected when an
// agent has its knowledge base enabled. Unlike gateway tools it surfaces
// backend failures as errors, which fail the run.
func KnowledgeBaseCapability(client *vector.Client, inv tools.Invocation) Capability {
	return Capability{
		Definition: domain.ToolDefinition{
			Name:        "knowledge_base_search",
			Description: "Search the knowledge base for relevant information from uploaded documents.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "string",
						"description": "The search query"
					},
					"top_k": {
						"type": "integer",
						"description": "Number of passages to return (default: 5)"
					}
				},
				"required": ["query"]
			}`),
		},
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			var a struct {
				Query string `json:"query"`
				TopK  int    `json:"top_k"`
			}
			if err := json.Unmarshal(args, &a); err != nil {
				return "", err
			}
			hits, err := client.Search(ctx, inv.UserID, inv.AgentID, a.Query, a.TopK)
			if err != nil {
				return "", err
			}
			texts := make([]string, 0, len(hits))
			for _, h := range hits {
				texts = append(texts, h.Text)
			}
			return strings.Join(texts, "\n\n---\n\n"), nil
		},
	}
}
