package tools

import (
	"context"
	"encoding/json"
	"os"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
)

// FileFetchTool retrieves the full contents of an uploaded document. Owner
// isolation is enforced by the store lookup: a document owned by another user
// is reported as not found, never as a permission error.
type FileFetchTool struct {
	store store.Store
}

// NewFileFetchTool creates the file_fetch tool.
func NewFileFetchTool(st store.Store) *FileFetchTool {
	return &FileFetchTool{store: st}
}

func (t *FileFetchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "file_fetch",
		Description: "Retrieve the full contents of an uploaded document by its ID. Use this to access complete document text.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"doc_id": {
					"type": "string",
					"description": "The document ID to retrieve"
				}
			},
			"required": ["doc_id"]
		}`),
	}
}

type fileFetchArgs struct {
	DocID string `json:"doc_id"`
}

func (t *FileFetchTool) Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result {
	var a fileFetchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Errorf("file fetch failed: %v", err)
	}

	doc, err := t.store.GetDocument(ctx, a.DocID, inv.UserID)
	if err != nil {
		return Errorf("file fetch failed: %v", err)
	}
	if doc == nil {
		return Errorf("document not found or access denied")
	}

	content, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return Errorf("file not found on disk")
	}

	return Result{Data: map[string]any{
		"filename":   doc.Filename,
		"content":    string(content),
		"size_bytes": doc.FileSize,
		"processed":  doc.Processed,
	}}
}
