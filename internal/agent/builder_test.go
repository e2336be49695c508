package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/tools"
	"github.com/agentforge/agentforge/policy"
)

func testGateway(t *testing.T) *tools.Gateway {
	t.Helper()
	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewHTTPFetchTool(time.Second))
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	gw, err := tools.NewGateway(registry, engine)
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	return gw
}

func TestBuildCapabilitiesSkipsUnregistered(t *testing.T) {
	cfg := &domain.AgentConfig{
		AgentID: "a1",
		Tools:   []string{"http_fetch", "does_not_exist"},
	}
	caps, err := BuildCapabilities(cfg, testGateway(t), nil, tools.Invocation{UserID: "u1"})
	if err != nil {
		t.Fatalf("BuildCapabilities failed: %v", err)
	}
	if len(caps) != 1 || caps[0].Definition.Name != "http_fetch" {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
}

func TestBuildCapabilitiesKnowledgeBaseRequiresVectorStore(t *testing.T) {
	cfg := &domain.AgentConfig{AgentID: "a1", KBEnabled: true}
	_, err := BuildCapabilities(cfg, testGateway(t), nil, tools.Invocation{UserID: "u1"})
	if err == nil || !strings.Contains(err.Error(), "knowledge base enabled") {
		t.Fatalf("expected setup error, got %v", err)
	}
}
