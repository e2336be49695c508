package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/agentforge/internal/domain"
)

// CreateAgent registers a new agent configuration. Unknown tool names are
// rejected up front rather than failing at run time.
func (s *Service) CreateAgent(ctx context.Context, userID string, req *domain.CreateAgentRequest) (*domain.AgentConfig, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return nil, fmt.Errorf("%w: system_prompt is required", ErrValidation)
	}
	for _, name := range req.Tools {
		if _, ok := s.gateway.Definition(name); !ok {
			return nil, fmt.Errorf("%w: unknown tool %s", ErrValidation, name)
		}
	}

	agent := &domain.AgentConfig{
		AgentID:      "agent_" + uuid.New().String()[:8],
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		SystemPrompt: req.SystemPrompt,
		KBEnabled:    req.KBEnabled,
		Tools:        req.Tools,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return agent, nil
}

// GetAgent returns an agent owned by the caller.
func (s *Service) GetAgent(ctx context.Context, userID, agentID string) (*domain.AgentConfig, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}
	if agent == nil || agent.UserID != userID {
		return nil, fmt.Errorf("%w: agent %s", ErrNotFound, agentID)
	}
	return agent, nil
}

// ListAgents returns the caller's agents.
func (s *Service) ListAgents(ctx context.Context, userID string) ([]domain.AgentConfig, error) {
	return s.store.ListAgents(ctx, userID)
}

// DeleteAgent removes an agent owned by the caller.
func (s *Service) DeleteAgent(ctx context.Context, userID, agentID string) error {
	deleted, err := s.store.DeleteAgent(ctx, agentID, userID)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: agent %s", ErrNotFound, agentID)
	}
	return nil
}

// CreateConversation opens a new conversation for the caller.
func (s *Service) CreateConversation(ctx context.Context, userID string, req *domain.CreateConversationRequest) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ConversationID: "conv_" + uuid.New().String()[:8],
		UserID:         userID,
		Title:          req.Title,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns a conversation owned by the caller together with
// its recent messages.
func (s *Service) GetConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, []domain.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil || conv.UserID != userID {
		return nil, nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	messages, err := s.history.LoadRecent(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}
	return conv, messages, nil
}
