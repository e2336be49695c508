package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
)

// Notifier polls a run and pushes progress events to a consumer until the
// run terminates, the poll budget runs out, or the consumer goes away.
type Notifier struct {
	store    store.Store
	interval time.Duration
	maxPolls int
}

func NewNotifier(st store.Store, interval time.Duration, maxPolls int) *Notifier {
	if interval <= 0 {
		interval = time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 120
	}
	return &Notifier{store: st, interval: interval, maxPolls: maxPolls}
}

// Watch emits an initial status event and then polls the run. Status changes
// produce status events; every tenth poll without a change produces a
// heartbeat. The final event is always stream-closing: complete, error or
// timeout. An emit error means the consumer disconnected and stops the watch.
func (n *Notifier) Watch(ctx context.Context, runID string, emit func(domain.StreamEvent) error) error {
	run, err := n.store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	if err := emit(statusEvent(run)); err != nil {
		return nil
	}
	if run.Status.Terminal() {
		return emitTerminal(run, emit)
	}

	lastStatus := run.Status
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for poll := 1; poll <= n.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		run, err = n.store.GetRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("poll run %s: %w", runID, err)
		}
		if run == nil {
			return fmt.Errorf("run %s disappeared", runID)
		}

		if run.Status != lastStatus {
			lastStatus = run.Status
			if err := emit(statusEvent(run)); err != nil {
				return nil
			}
		} else if poll%10 == 0 {
			err := emit(domain.StreamEvent{
				Kind: domain.StreamEventHeartbeat,
				Data: map[string]any{"poll": poll},
			})
			if err != nil {
				return nil
			}
		}

		if run.Status.Terminal() {
			return emitTerminal(run, emit)
		}
	}

	emit(domain.StreamEvent{
		Kind: domain.StreamEventTimeout,
		Data: map[string]any{"run_id": runID, "message": "watch timed out"},
	})
	return nil
}

func statusEvent(run *domain.Run) domain.StreamEvent {
	return domain.StreamEvent{
		Kind: domain.StreamEventStatus,
		Data: map[string]any{"run_id": run.RunID, "status": string(run.Status)},
	}
}

func emitTerminal(run *domain.Run, emit func(domain.StreamEvent) error) error {
	switch run.Status {
	case domain.RunStatusCompleted:
		emit(domain.StreamEvent{
			Kind: domain.StreamEventComplete,
			Data: map[string]any{"run_id": run.RunID, "output_text": run.OutputText},
		})
	default:
		emit(domain.StreamEvent{
			Kind: domain.StreamEventError,
			Data: map[string]any{"run_id": run.RunID, "error_message": run.ErrorMessage},
		})
	}
	return nil
}
