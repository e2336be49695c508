package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
)

// ConversationProvider loads bounded history for runs and appends finished
// turns. The window caps how many prior messages are fed back into the model.
type ConversationProvider struct {
	store  store.Store
	window int
}

func NewConversationProvider(st store.Store, window int) *ConversationProvider {
	if window <= 0 {
		window = 10
	}
	return &ConversationProvider{store: st, window: window}
}

// LoadRecent returns the last messages of the conversation in chronological
// order, at most window entries.
func (p *ConversationProvider) LoadRecent(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return p.store.GetRecentMessages(ctx, conversationID, p.window)
}

// Append records a finished turn on the conversation.
func (p *ConversationProvider) Append(ctx context.Context, conversationID, role, content string) error {
	msg := &domain.Message{
		MessageID:      "msg_" + uuid.New().String()[:8],
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.store.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("append %s message: %w", role, err)
	}
	return nil
}

// FormatTask builds the model task text from history plus the current input.
// With no history the input is passed through unchanged.
func FormatTask(history []domain.Message, input string) string {
	if len(history) == 0 {
		return input
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
	}
	b.WriteString("\nCurrent query:\n")
	b.WriteString(input)
	return b.String()
}
