package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MockClient is a scriptable Client for tests and offline development. With
// no scripted responses it answers every completion with canned text, so the
// whole pipeline can run without an API key.
type MockClient struct {
	mu        sync.Mutex
	responses []openai.ChatCompletionResponse
	err       error
	requests  []openai.ChatCompletionRequest
	embedDim  int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{embedDim: 8}
}

// Enqueue scripts the next completion responses, in order.
func (m *MockClient) Enqueue(responses ...openai.ChatCompletionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// FailWith makes every subsequent call return err.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all completion requests seen so far.
func (m *MockClient) Requests() []openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]openai.ChatCompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// TextResponse builds a plain assistant answer for scripting.
func TextResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "mock",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
	}
}

// ToolCallResponse builds an assistant turn requesting one tool invocation.
func ToolCallResponse(toolName, arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "mock",
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   fmt.Sprintf("call_%d", time.Now().UnixNano()),
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      toolName,
						Arguments: arguments,
					},
				}},
			},
			FinishReason: openai.FinishReasonToolCalls,
		}},
	}
}

// CreateChatCompletion returns the next scripted response, or a canned answer.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}
	return TextResponse("This is a mock response."), nil
}

// CreateEmbeddings returns deterministic unit vectors.
func (m *MockClient) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return openai.EmbeddingResponse{}, m.err
	}
	vec := make([]float32, m.embedDim)
	vec[0] = 1
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Index: 0, Embedding: vec}},
	}, nil
}
