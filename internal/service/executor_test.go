package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agentforge/agentforge/internal/adapter/llm"
	"github.com/agentforge/agentforge/internal/config"
	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
	"github.com/agentforge/agentforge/internal/tools"
	"github.com/agentforge/agentforge/policy"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMModel:       "mock",
		MaxLoopCycles:  10,
		WorkerCount:    2,
		QueueSize:      8,
		HistoryWindow:  10,
		NotifyInterval: 10 * time.Millisecond,
		NotifyMaxPolls: 50,
	}
}

func newTestService(t *testing.T, mock *llm.MockClient) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewSQLQueryTool(st.DB()))
	registry.MustRegister(tools.NewHTTPFetchTool(time.Second))

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	gateway, err := tools.NewGateway(registry, engine)
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	return New(st, mock, nil, gateway, testConfig()), st
}

func seedTestAgent(t *testing.T, st *store.SQLiteStore, agentID string, kbEnabled bool) {
	t.Helper()
	err := st.CreateAgent(context.Background(), &domain.AgentConfig{
		AgentID:      agentID,
		UserID:       "u1",
		Name:         "Assistant",
		SystemPrompt: "You are helpful.",
		KBEnabled:    kbEnabled,
		Tools:        []string{"sql_query"},
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
}

func seedTestRun(t *testing.T, st *store.SQLiteStore, runID, agentID, conversationID string) {
	t.Helper()
	err := st.CreateRun(context.Background(), &domain.Run{
		RunID:          runID,
		UserID:         "u1",
		AgentID:        agentID,
		ConversationID: conversationID,
		Status:         domain.RunStatusPending,
		InputText:      "hello",
		CreatedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
}

func stepTypes(steps []domain.RunStep) []domain.StepType {
	out := make([]domain.StepType, len(steps))
	for i, s := range steps {
		out[i] = s.StepType
	}
	return out
}

func TestExecuteCompletesRun(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Enqueue(llm.TextResponse("hi there"))
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")

	svc.Execute(ctx, "r1")

	run, err := st.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("unexpected status: %s (error=%q)", run.Status, run.ErrorMessage)
	}
	if run.OutputText != "hi there" {
		t.Fatalf("unexpected output: %q", run.OutputText)
	}
	if run.StartedAt == nil || run.CompletedAt == nil {
		t.Fatalf("timestamps not stamped: %+v", run)
	}

	steps, err := st.GetRunSteps(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRunSteps failed: %v", err)
	}
	want := []domain.StepType{
		domain.StepTypeLLMCall, // user input
		domain.StepTypeLLMCall, // model completion
		domain.StepTypeFinalAnswer,
	}
	got := stepTypes(steps)
	if len(got) != len(want) {
		t.Fatalf("unexpected steps: %v", got)
	}
	for i := range want {
		if got[i] != want[i] || steps[i].StepOrder != i {
			t.Fatalf("step %d: want %s, got %+v", i, want[i], steps[i])
		}
	}

	var final map[string]any
	if err := json.Unmarshal(steps[2].OutputData, &final); err != nil {
		t.Fatalf("decode final step: %v", err)
	}
	if final["answer"] != "hi there" {
		t.Fatalf("unexpected final step: %+v", final)
	}
	if steps[2].DurationMs == nil {
		t.Fatal("final step missing duration")
	}
}

func TestExecuteWithToolCalls(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Enqueue(
		llm.ToolCallResponse("sql_query", `{"query":"select 1 as n"}`),
		llm.TextResponse("the answer is 1"),
	)
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")

	svc.Execute(ctx, "r1")

	run, _ := st.GetRun(ctx, "r1")
	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("unexpected status: %s (error=%q)", run.Status, run.ErrorMessage)
	}

	steps, _ := st.GetRunSteps(ctx, "r1")
	want := []domain.StepType{
		domain.StepTypeLLMCall,
		domain.StepTypeLLMCall,
		domain.StepTypeToolCall,
		domain.StepTypeToolResult,
		domain.StepTypeLLMCall,
		domain.StepTypeFinalAnswer,
	}
	got := stepTypes(steps)
	if len(got) != len(want) {
		t.Fatalf("unexpected steps: %v", got)
	}
	if steps[2].ToolName != "sql_query" || steps[3].ToolName != "sql_query" {
		t.Fatalf("tool name not recorded: %+v %+v", steps[2], steps[3])
	}

	var result map[string]any
	if err := json.Unmarshal(steps[3].OutputData, &result); err != nil {
		t.Fatalf("decode tool result step: %v", err)
	}
	if _, ok := result["result"]; !ok {
		t.Fatalf("unexpected tool result step: %+v", result)
	}
}

func TestExecuteDuplicateDispatchIsNoop(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Enqueue(llm.TextResponse("once"))
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")

	svc.Execute(ctx, "r1")
	svc.Execute(ctx, "r1")

	steps, _ := st.GetRunSteps(ctx, "r1")
	if len(steps) != 3 {
		t.Fatalf("duplicate dispatch added steps: %v", stepTypes(steps))
	}
	if len(mock.Requests()) != 1 {
		t.Fatalf("duplicate dispatch reached the llm: %d calls", len(mock.Requests()))
	}
}

func TestExecuteMissingAgentFailsRun(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")
	if _, err := st.DeleteAgent(ctx, "a1", "u1"); err != nil {
		t.Fatalf("DeleteAgent failed: %v", err)
	}

	svc.Execute(ctx, "r1")

	run, _ := st.GetRun(ctx, "r1")
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "agent a1 not found") {
		t.Fatalf("unexpected error: %q", run.ErrorMessage)
	}

	steps, _ := st.GetRunSteps(ctx, "r1")
	last := steps[len(steps)-1]
	if last.StepType != domain.StepTypeError || last.ErrorMessage == "" {
		t.Fatalf("missing error step: %+v", last)
	}
}

func TestExecuteKnowledgeBaseWithoutVectorStoreFailsRun(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", true)
	seedTestRun(t, st, "r1", "a1", "")

	svc.Execute(ctx, "r1")

	run, _ := st.GetRun(ctx, "r1")
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "knowledge base enabled") {
		t.Fatalf("unexpected error: %q", run.ErrorMessage)
	}
}

func TestExecuteWithConversationHistory(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.Enqueue(llm.TextResponse("as I said, blue"))
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)

	err := st.CreateConversation(ctx, &domain.Conversation{
		ConversationID: "c1", UserID: "u1", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	base := time.Now().Add(-time.Minute)
	for i, m := range []struct{ role, content string }{
		{"user", "what is your favorite color?"},
		{"assistant", "blue"},
	} {
		err := st.CreateMessage(ctx, &domain.Message{
			MessageID: "m" + string(rune('1'+i)), ConversationID: "c1",
			Role: m.role, Content: m.content, CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	seedTestRun(t, st, "r1", "a1", "c1")
	svc.Execute(ctx, "r1")

	run, _ := st.GetRun(ctx, "r1")
	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("unexpected status: %s (error=%q)", run.Status, run.ErrorMessage)
	}

	// History is folded into the task given to the model
	reqs := mock.Requests()
	task := reqs[0].Messages[1].Content
	if !strings.Contains(task, "Previous conversation:") ||
		!strings.Contains(task, "ASSISTANT: blue") ||
		!strings.Contains(task, "Current query:\nhello") {
		t.Fatalf("unexpected task: %q", task)
	}

	// A history step precedes the user input step
	steps, _ := st.GetRunSteps(ctx, "r1")
	var info map[string]any
	if err := json.Unmarshal(steps[0].OutputData, &info); err != nil {
		t.Fatalf("decode history step: %v", err)
	}
	if info["info"] != "Loaded 2 previous messages" {
		t.Fatalf("unexpected history step: %+v", info)
	}

	// Both turns appended to the conversation
	messages, err := st.GetRecentMessages(ctx, "c1", 10)
	if err != nil {
		t.Fatalf("GetRecentMessages failed: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[2].Role != "user" || messages[2].Content != "hello" {
		t.Fatalf("user turn not appended: %+v", messages[2])
	}
	if messages[3].Role != "assistant" || messages[3].Content != "as I said, blue" {
		t.Fatalf("assistant turn not appended: %+v", messages[3])
	}
}

// flakyStore simulates transient read failures after a successful claim.
type flakyStore struct {
	store.Store
	getRunErr error
}

func (f *flakyStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	if f.getRunErr != nil {
		return nil, f.getRunErr
	}
	return f.Store.GetRun(ctx, runID)
}

func TestExecuteReadFailureAfterClaimFailsRun(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	_, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")

	flaky := &flakyStore{Store: st, getRunErr: errors.New("database is locked")}

	registry := tools.NewRegistry()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	gateway, err := tools.NewGateway(registry, engine)
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	svc := New(flaky, mock, nil, gateway, testConfig())

	svc.Execute(ctx, "r1")

	// The claim moved the run to RUNNING; the read failure must still land
	// it in a terminal state.
	run, err := st.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run left in %s after read failure", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "database is locked") {
		t.Fatalf("unexpected error: %q", run.ErrorMessage)
	}

	steps, _ := st.GetRunSteps(ctx, "r1")
	if len(steps) != 1 || steps[0].StepType != domain.StepTypeError {
		t.Fatalf("missing error step: %v", stepTypes(steps))
	}
	if len(mock.Requests()) != 0 {
		t.Fatalf("llm reached despite read failure: %d calls", len(mock.Requests()))
	}
}

func TestExecuteLLMFailureFailsRun(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient()
	mock.FailWith(context.DeadlineExceeded)
	svc, st := newTestService(t, mock)

	seedTestAgent(t, st, "a1", false)
	seedTestRun(t, st, "r1", "a1", "")

	svc.Execute(ctx, "r1")

	run, _ := st.GetRun(ctx, "r1")
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	if !strings.Contains(run.ErrorMessage, "llm call failed") {
		t.Fatalf("unexpected error: %q", run.ErrorMessage)
	}
}
