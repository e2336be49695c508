package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/policy"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Gateway maps tool names to handlers and executes them against validated
// arguments plus the trusted invocation context. It never returns a Go error
// to the caller: every failure mode resolves to a Result envelope.
type Gateway struct {
	registry *Registry
	policy   *policy.Engine
	schemas  map[string]*jsonschema.Schema
}

// NewGateway builds a gateway over the registry, compiling each tool's
// parameter schema up front.
func NewGateway(registry *Registry, policyEngine *policy.Engine) (*Gateway, error) {
	g := &Gateway{
		registry: registry,
		policy:   policyEngine,
		schemas:  make(map[string]*jsonschema.Schema),
	}
	for _, def := range registry.Definitions() {
		if len(def.Parameters) == 0 {
			continue
		}
		sch, err := jsonschema.CompileString(def.Name+".json", string(def.Parameters))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for tool %s: %w", def.Name, err)
		}
		g.schemas[def.Name] = sch
	}
	return g, nil
}

// Definition returns the advertised definition for a registered tool.
func (g *Gateway) Definition(name string) (domain.ToolDefinition, bool) {
	t, ok := g.registry.Get(name)
	if !ok {
		return domain.ToolDefinition{}, false
	}
	return t.Definition(), true
}

// Definitions returns every registered tool definition.
func (g *Gateway) Definitions() []domain.ToolDefinition {
	return g.registry.Definitions()
}

// Invoke validates and executes the named tool. Handler panics are recovered
// at this boundary so a misbehaving tool surfaces as information, not a crash.
func (g *Gateway) Invoke(ctx context.Context, name string, args json.RawMessage, inv Invocation) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: tool %s panicked: %v", name, r)
			res = Errorf("tool %s failed: %v", name, r)
		}
	}()

	tool, ok := g.registry.Get(name)
	if !ok {
		return Errorf("unknown tool: %s", name)
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return Errorf("invalid arguments for %s: %v", name, err)
	}

	if sch, ok := g.schemas[name]; ok {
		if err := sch.Validate(decoded); err != nil {
			return Errorf("invalid arguments for %s: %v", name, err)
		}
	}

	if g.policy != nil {
		decision, err := g.policy.Evaluate(ctx, map[string]any{
			"tool_name": name,
			"user_id":   inv.UserID,
			"agent_id":  inv.AgentID,
			"args":      decoded,
		})
		if err != nil {
			return Errorf("policy evaluation failed for %s: %v", name, err)
		}
		if decision == "block" {
			return Errorf("tool %s blocked by policy", name)
		}
	}

	return tool.Invoke(ctx, args, inv)
}
