package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/agentforge/agentforge/internal/adapter/llm"
	"github.com/agentforge/agentforge/internal/domain"
)

// memRecorder collects drafts in memory.
type memRecorder struct {
	drafts []domain.StepDraft
	err    error
}

func (r *memRecorder) Record(ctx context.Context, draft domain.StepDraft) error {
	if r.err != nil {
		return r.err
	}
	r.drafts = append(r.drafts, draft)
	return nil
}

func (r *memRecorder) types() []domain.StepType {
	out := make([]domain.StepType, len(r.drafts))
	for i, d := range r.drafts {
		out[i] = d.StepType
	}
	return out
}

func echoCapability(name string) Capability {
	return Capability{
		Definition: domain.ToolDefinition{
			Name:        name,
			Description: "Echo the arguments back.",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		},
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			return `{"echo":` + string(args) + `}`, nil
		},
	}
}

func TestLoopDirectAnswer(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Enqueue(llm.TextResponse("42"))
	rec := &memRecorder{}

	loop := New(mock, "mock", "You are helpful.", nil, rec, 10)
	answer, err := loop.Run(context.Background(), "What is 6 times 7?")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if answer != "42" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	if len(rec.drafts) != 1 || rec.drafts[0].StepType != domain.StepTypeLLMCall {
		t.Fatalf("unexpected steps: %v", rec.types())
	}
	if rec.drafts[0].OutputData["content"] != "42" {
		t.Fatalf("unexpected step output: %+v", rec.drafts[0].OutputData)
	}
}

func TestLoopToolCycle(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Enqueue(
		llm.ToolCallResponse("lookup", `{"key":"x"}`),
		llm.TextResponse("found it"),
	)
	rec := &memRecorder{}

	loop := New(mock, "mock", "prompt", []Capability{echoCapability("lookup")}, rec, 10)
	answer, err := loop.Run(context.Background(), "find x")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if answer != "found it" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	want := []domain.StepType{
		domain.StepTypeLLMCall,
		domain.StepTypeToolCall,
		domain.StepTypeToolResult,
		domain.StepTypeLLMCall,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("unexpected steps: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: want %s, got %s", i, want[i], got[i])
		}
	}

	// Tool result fed back as a tool-role message on the second request
	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 llm calls, got %d", len(reqs))
	}
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	if last.Role != "tool" || !strings.Contains(last.Content, `"echo"`) {
		t.Fatalf("unexpected tool message: %+v", last)
	}
}

func TestLoopUnknownToolFedBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Enqueue(
		llm.ToolCallResponse("nope", `{}`),
		llm.TextResponse("ok"),
	)
	rec := &memRecorder{}

	loop := New(mock, "mock", "prompt", nil, rec, 10)
	answer, err := loop.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if answer != "ok" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	reqs := mock.Requests()
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	if !strings.Contains(last.Content, "unknown tool: nope") {
		t.Fatalf("unexpected tool message: %q", last.Content)
	}
}

func TestLoopBudgetExhausted(t *testing.T) {
	mock := llm.NewMockClient()
	// Two cycles of tool calls, then the forced final answer
	mock.Enqueue(
		llm.ToolCallResponse("lookup", `{}`),
		llm.ToolCallResponse("lookup", `{}`),
		llm.TextResponse("best effort"),
	)
	rec := &memRecorder{}

	loop := New(mock, "mock", "prompt", []Capability{echoCapability("lookup")}, rec, 2)
	answer, err := loop.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if answer != "best effort" {
		t.Fatalf("unexpected answer: %q", answer)
	}

	reqs := mock.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 llm calls, got %d", len(reqs))
	}
	// The forced completion advertises no tools
	if len(reqs[2].Tools) != 0 {
		t.Fatalf("final completion must not offer tools: %+v", reqs[2].Tools)
	}

	final := rec.drafts[len(rec.drafts)-1]
	if final.OutputData["budget_exhausted"] != true {
		t.Fatalf("unexpected final step output: %+v", final.OutputData)
	}
}

func TestLoopClientErrorIsFatal(t *testing.T) {
	mock := llm.NewMockClient()
	mock.FailWith(errors.New("backend down"))
	rec := &memRecorder{}

	loop := New(mock, "mock", "prompt", nil, rec, 10)
	_, err := loop.Run(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "llm call failed") {
		t.Fatalf("expected llm failure, got %v", err)
	}
}

func TestLoopCapabilityErrorIsFatal(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Enqueue(llm.ToolCallResponse("kb", `{}`))
	rec := &memRecorder{}

	broken := Capability{
		Definition: domain.ToolDefinition{Name: "kb", Description: "broken"},
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", errors.New("vector store unreachable")
		},
	}
	loop := New(mock, "mock", "prompt", []Capability{broken}, rec, 10)
	_, err := loop.Run(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "tool kb failed") {
		t.Fatalf("expected fatal tool failure, got %v", err)
	}
}

func TestLoopRecorderFailureAborts(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Enqueue(llm.TextResponse("42"))
	rec := &memRecorder{err: errors.New("db locked")}

	loop := New(mock, "mock", "prompt", nil, rec, 10)
	_, err := loop.Run(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "db locked") {
		t.Fatalf("expected recorder failure, got %v", err)
	}
}
