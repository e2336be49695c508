package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentforge/agentforge/internal/adapter/llm"
	"github.com/agentforge/agentforge/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// Recorder receives one draft per recorded step. The implementation owns
// ordering and persistence; a recording failure is fatal to the loop.
type Recorder interface {
	Record(ctx context.Context, draft domain.StepDraft) error
}

// Loop drives the decide/act/observe cycle for one run. Each cycle presents
// the transcript to the model; the model either answers or requests one or
// more tool invocations, whose results are fed back for the next cycle.
type Loop struct {
	client       llm.Client
	model        string
	systemPrompt string
	caps         []Capability
	recorder     Recorder
	maxCycles    int
}

// New creates a reasoning loop.
func New(client llm.Client, model, systemPrompt string, caps []Capability, recorder Recorder, maxCycles int) *Loop {
	if maxCycles <= 0 {
		maxCycles = 10
	}
	return &Loop{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		caps:         caps,
		recorder:     recorder,
		maxCycles:    maxCycles,
	}
}

// Run executes the loop for a task and returns the final answer. Any error
// returned here is a run-execution failure; tool failures never surface as
// errors because the gateway envelopes them.
func (l *Loop) Run(ctx context.Context, task string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: l.systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: task},
	}

	var toolDefs []openai.Tool
	for _, c := range l.caps {
		toolDefs = append(toolDefs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        c.Definition.Name,
				Description: c.Definition.Description,
				Parameters:  c.Definition.Parameters,
			},
		})
	}

	for cycle := 0; cycle < l.maxCycles; cycle++ {
		msg, err := l.complete(ctx, messages, toolDefs, cycle, nil)
		if err != nil {
			return "", err
		}

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, *msg)
		for _, tc := range msg.ToolCalls {
			content, err := l.dispatch(ctx, tc)
			if err != nil {
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	}

	// Cycle budget exhausted: one last completion without tools forces a
	// final answer instead of leaving the run without output.
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "Reasoning budget exhausted. Give your best final answer now based on the information gathered so far.",
	})
	msg, err := l.complete(ctx, messages, nil, l.maxCycles, map[string]any{"budget_exhausted": true})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (l *Loop) complete(ctx context.Context, messages []openai.ChatCompletionMessage, toolDefs []openai.Tool, cycle int, extraOutput map[string]any) (*openai.ChatCompletionMessage, error) {
	start := time.Now()
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    l.model,
		Messages: messages,
		Tools:    toolDefs,
	})
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}
	durationMs := time.Since(start).Milliseconds()

	msg := resp.Choices[0].Message

	output := map[string]any{"content": msg.Content}
	if len(msg.ToolCalls) > 0 {
		names := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			names = append(names, tc.Function.Name)
		}
		output["tool_calls"] = names
	}
	for k, v := range extraOutput {
		output[k] = v
	}

	if err := l.recorder.Record(ctx, domain.StepDraft{
		StepType:   domain.StepTypeLLMCall,
		InputData:  map[string]any{"model": l.model, "cycle": cycle},
		OutputData: output,
		DurationMs: &durationMs,
	}); err != nil {
		return nil, err
	}

	return &msg, nil
}

func (l *Loop) dispatch(ctx context.Context, tc openai.ToolCall) (string, error) {
	args := json.RawMessage(tc.Function.Arguments)
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		decoded = tc.Function.Arguments
	}

	if err := l.recorder.Record(ctx, domain.StepDraft{
		StepType:  domain.StepTypeToolCall,
		ToolName:  tc.Function.Name,
		InputData: map[string]any{"arguments": decoded},
	}); err != nil {
		return "", err
	}

	c, ok := capLookup(l.caps, tc.Function.Name)
	var content string
	start := time.Now()
	if !ok {
		content = fmt.Sprintf(`{"error":"unknown tool: %s"}`, tc.Function.Name)
	} else {
		var err error
		content, err = c.Invoke(ctx, args)
		if err != nil {
			return "", fmt.Errorf("tool %s failed: %w", tc.Function.Name, err)
		}
	}
	durationMs := time.Since(start).Milliseconds()

	var result any
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		result = content
	}
	if err := l.recorder.Record(ctx, domain.StepDraft{
		StepType:   domain.StepTypeToolResult,
		ToolName:   tc.Function.Name,
		OutputData: map[string]any{"result": result},
		DurationMs: &durationMs,
	}); err != nil {
		return "", err
	}

	return content, nil
}

func capLookup(caps []Capability, name string) (Capability, bool) {
	for _, c := range caps {
		if c.Definition.Name == name {
			return c, true
		}
	}
	return Capability{}, false
}
