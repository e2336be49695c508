package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/agentforge/internal/domain"
)

// Sentinel errors the transport layer maps to HTTP status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid request")
)

// CreateRun validates the request, persists the run as PENDING and hands it
// to the dispatcher. When the queue is full the run is immediately failed so
// it never sticks in PENDING.
func (s *Service) CreateRun(ctx context.Context, userID string, req *domain.CreateRunRequest) (*domain.Run, error) {
	if strings.TrimSpace(req.InputText) == "" {
		return nil, fmt.Errorf("%w: input_text is required", ErrValidation)
	}
	if req.AgentID == "" {
		return nil, fmt.Errorf("%w: agent_id is required", ErrValidation)
	}

	agentCfg, err := s.store.GetAgent(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}
	if agentCfg == nil || agentCfg.UserID != userID {
		return nil, fmt.Errorf("%w: agent %s", ErrNotFound, req.AgentID)
	}

	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		if conv == nil || conv.UserID != userID {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, req.ConversationID)
		}
	}

	run := &domain.Run{
		RunID:          "run_" + uuid.New().String()[:8],
		UserID:         userID,
		AgentID:        req.AgentID,
		ConversationID: req.ConversationID,
		Status:         domain.RunStatusPending,
		InputText:      req.InputText,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if err := s.dispatcher.Enqueue(run.RunID); err != nil {
		log.Printf("WARN: run %s not dispatched: %v", run.RunID, err)
		now := time.Now().UTC()
		if ferr := s.store.UpdateRunFailed(ctx, run.RunID, err.Error(), now); ferr != nil {
			log.Printf("ERROR: mark undispatched run %s failed: %v", run.RunID, ferr)
		}
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = err.Error()
		run.CompletedAt = &now
	}

	return run, nil
}

// GetRun returns a run with its recorded steps. Runs are only visible to
// their owner.
func (s *Service) GetRun(ctx context.Context, userID, runID string) (*domain.RunWithSteps, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if run == nil || run.UserID != userID {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}

	steps, err := s.store.GetRunSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run steps: %w", err)
	}
	return &domain.RunWithSteps{Run: *run, Steps: steps}, nil
}

// ListRuns returns the caller's runs, optionally filtered by agent.
func (s *Service) ListRuns(ctx context.Context, userID, agentID string, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListRuns(ctx, userID, agentID, limit)
}

// DeleteRun removes a run and its steps.
func (s *Service) DeleteRun(ctx context.Context, userID, runID string) error {
	deleted, err := s.store.DeleteRun(ctx, runID, userID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

// WatchRun streams progress events for a run owned by the caller.
func (s *Service) WatchRun(ctx context.Context, userID, runID string, emit func(domain.StreamEvent) error) error {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if run == nil || run.UserID != userID {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}

	notifier := NewNotifier(s.store, s.config.NotifyInterval, s.config.NotifyMaxPolls)
	return notifier.Watch(ctx, runID, emit)
}
