// Package llm provides an abstraction over the chat-completion and embedding
// APIs used by the reasoning loop and the vector search adapter.
package llm

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client defines the subset of the OpenAI-compatible API the service uses.
// *openai.Client satisfies it directly.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

var _ Client = (*openai.Client)(nil)

// NewOpenAIClient creates an OpenAI-compatible client. A non-empty baseURL
// points the client at a compatible gateway (LiteLLM, vLLM, etc.).
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}
