package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicyAllows(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := engine.Evaluate(ctx, map[string]any{
		"tool_name": "sql_query",
		"user_id":   "u1",
		"args":      map[string]any{"query": "select 1"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "allow" {
		t.Fatalf("expected allow, got %q", decision)
	}
}

func TestDefaultPolicyBlocksNonHTTPFetch(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := engine.Evaluate(ctx, map[string]any{
		"tool_name": "http_fetch",
		"user_id":   "u1",
		"args":      map[string]any{"url": "file:///etc/passwd"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "block" {
		t.Fatalf("expected block, got %q", decision)
	}

	decision, err = engine.Evaluate(ctx, map[string]any{
		"tool_name": "http_fetch",
		"user_id":   "u1",
		"args":      map[string]any{"url": "https://example.com"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "allow" {
		t.Fatalf("expected allow, got %q", decision)
	}
}
