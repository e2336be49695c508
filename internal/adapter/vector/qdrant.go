// Package vector provides semantic retrieval over a Qdrant collection.
// Indexing happens outside this service; only search is exposed here.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentforge/agentforge/internal/adapter/llm"
	openai "github.com/sashabaranov/go-openai"
)

// CollectionName is the shared collection holding all document chunks; rows
// are isolated per owner and agent through payload filters.
const CollectionName = "documents"

// SearchHit is one retrieved passage with its similarity score.
type SearchHit struct {
	Text  string
	Score float64
}

// Client searches a Qdrant collection, embedding queries through the LLM
// client's embedding endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	embedder   llm.Client
	model      string
}

// NewClient creates a new Qdrant search client.
func NewClient(baseURL string, embedder llm.Client, embeddingModel string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		embedder:   embedder,
		model:      embeddingModel,
	}
}

type searchRequest struct {
	Vector      []float32      `json:"vector"`
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
	Status string `json:"status"`
}

// Search embeds the query and returns the topK most similar chunks indexed
// for the given owner and agent.
func (c *Client) Search(ctx context.Context, userID, agentID, query string, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}

	embResp, err := c.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{query},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}

	reqBody := searchRequest{
		Vector:      embResp.Data[0].Embedding,
		Limit:       topK,
		WithPayload: true,
		Filter: map[string]any{
			"must": []map[string]any{
				{"key": "user_id", "match": map[string]any{"value": userID}},
				{"key": "agent_id", "match": map[string]any{"value": agentID}},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, CollectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		text, _ := r.Payload["text"].(string)
		hits = append(hits, SearchHit{Text: text, Score: r.Score})
	}
	return hits, nil
}
