package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
)

// HTTPFetchTool makes an outbound HTTP request with a bounded timeout.
// Methods are restricted to GET and POST.
type HTTPFetchTool struct {
	client *http.Client
}

// NewHTTPFetchTool creates the http_fetch tool with the given request budget.
func NewHTTPFetchTool(timeout time.Duration) *HTTPFetchTool {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetchTool{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPFetchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "http_fetch",
		Description: "Make an HTTP request to an external API or URL. Returns the response data. Use this to fetch real-time data or interact with external services.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {
					"type": "string",
					"description": "The URL to fetch"
				},
				"method": {
					"type": "string",
					"description": "HTTP method (GET or POST)",
					"enum": ["GET", "POST"]
				},
				"headers": {
					"type": "object",
					"description": "Optional HTTP headers as key-value pairs"
				},
				"body": {
					"type": "string",
					"description": "Optional request body for POST requests (JSON string)"
				}
			},
			"required": ["url"]
		}`),
	}
}

type httpFetchArgs struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func (t *HTTPFetchTool) Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result {
	var a httpFetchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Errorf("http request failed: %v", err)
	}

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return Errorf("unsupported method: %s", a.Method)
	}

	var bodyReader io.Reader
	if method == http.MethodPost && a.Body != "" {
		bodyReader = strings.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.URL, bodyReader)
	if err != nil {
		return Errorf("http request failed: %v", err)
	}
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Errorf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Errorf("http request failed: %v", err)
	}

	// JSON when possible, raw text otherwise
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	return Result{Data: map[string]any{
		"status_code": resp.StatusCode,
		"data":        data,
	}}
}
