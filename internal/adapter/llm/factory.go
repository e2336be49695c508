package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "AGENTFORGE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewClient creates an LLM client based on the AGENTFORGE_MODE environment
// variable. If AGENTFORGE_MODE=MOCK, returns a MockClient; otherwise returns
// a real OpenAI-compatible client.
func NewClient(baseURL, apiKey string, timeout time.Duration) Client {
	if os.Getenv(EnvMode) == ModeMock {
		log.Println("AGENTFORGE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewOpenAIClient(baseURL, apiKey, timeout)
}
