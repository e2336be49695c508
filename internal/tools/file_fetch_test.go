package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
)

func TestFileFetch(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("important notes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	err = st.CreateDocument(ctx, &domain.Document{
		DocID:     "d1",
		UserID:    "u1",
		Filename:  "notes.txt",
		FilePath:  path,
		FileSize:  15,
		Processed: true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	tool := NewFileFetchTool(st)

	res := tool.Invoke(ctx, json.RawMessage(`{"doc_id":"d1"}`), Invocation{UserID: "u1"})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Data["content"] != "important notes" || res.Data["filename"] != "notes.txt" {
		t.Fatalf("unexpected data: %+v", res.Data)
	}

	// Other users see the document as missing
	res = tool.Invoke(ctx, json.RawMessage(`{"doc_id":"d1"}`), Invocation{UserID: "u2"})
	if res.Error != "document not found or access denied" {
		t.Fatalf("unexpected result: %+v", res)
	}

	// Missing file on disk
	os.Remove(path)
	res = tool.Invoke(ctx, json.RawMessage(`{"doc_id":"d1"}`), Invocation{UserID: "u1"})
	if res.Error != "file not found on disk" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
