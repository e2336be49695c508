// Package store provides persistence for runs, steps, agents, conversations
// and documents.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
)

// Store is the persistence interface used by the service layer.
type Store interface {
	Close() error

	// DB exposes the underlying handle for the read-only sql_query tool.
	DB() *sql.DB

	// Agents
	CreateAgent(ctx context.Context, agent *domain.AgentConfig) error
	GetAgent(ctx context.Context, agentID string) (*domain.AgentConfig, error)
	ListAgents(ctx context.Context, userID string) ([]domain.AgentConfig, error)
	DeleteAgent(ctx context.Context, agentID, userID string) (bool, error)

	// Runs
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, userID, agentID string, limit int) ([]domain.Run, error)
	DeleteRun(ctx context.Context, runID, userID string) (bool, error)

	// ClaimRun atomically moves a PENDING run to RUNNING and stamps
	// started_at. Returns false when the run is not PENDING, which makes a
	// duplicate dispatch a no-op.
	ClaimRun(ctx context.Context, runID string, startedAt time.Time) (bool, error)
	UpdateRunCompleted(ctx context.Context, runID, outputText string, completedAt time.Time) error
	UpdateRunFailed(ctx context.Context, runID, errorMessage string, completedAt time.Time) error

	// Run steps (append-only)
	CreateRunStep(ctx context.Context, step *domain.RunStep) error
	GetRunSteps(ctx context.Context, runID string) ([]domain.RunStep, error)

	// Conversations
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	CreateMessage(ctx context.Context, msg *domain.Message) error
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)

	// Documents
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, docID, userID string) (*domain.Document, error)
}
