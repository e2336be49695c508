package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/agentforge/agentforge/internal/agent"
	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/tools"
)

// Execute runs a dispatched run to a terminal state. It claims the run with a
// conditional update, so a duplicate dispatch of the same run is a no-op.
// Whatever happens inside, the run never stays RUNNING: every failure path
// lands in FAILED with an error step, and a panic is caught by the recover
// below.
func (s *Service) Execute(ctx context.Context, runID string) {
	claimed, err := s.store.ClaimRun(ctx, runID, time.Now().UTC())
	if err != nil {
		log.Printf("ERROR: claim run %s: %v", runID, err)
		return
	}
	if !claimed {
		log.Printf("WARN: run %s not claimable, skipping duplicate dispatch", runID)
		return
	}

	recorder := NewStepRecorder(s.store, runID)

	// The run is RUNNING from here on; every exit must reach a terminal
	// state, even if the follow-up read fails.
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		log.Printf("ERROR: load claimed run %s: %v", runID, err)
		s.failRun(ctx, recorder, runID, fmt.Sprintf("load run: %v", err))
		return
	}
	if run == nil {
		log.Printf("ERROR: claimed run %s no longer exists", runID)
		s.failRun(ctx, recorder, runID, "run record disappeared after claim")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: run %s panicked: %v", runID, r)
			s.failRun(ctx, recorder, runID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	output, err := s.executeRun(ctx, run, recorder)
	if err != nil {
		log.Printf("ERROR: run %s failed: %v", runID, err)
		s.failRun(ctx, recorder, runID, err.Error())
		return
	}

	if err := s.store.UpdateRunCompleted(ctx, runID, output, time.Now().UTC()); err != nil {
		log.Printf("ERROR: mark run %s completed: %v", runID, err)
	}
}

// executeRun performs the actual work: history, capability setup, the
// reasoning loop and the final answer step.
func (s *Service) executeRun(ctx context.Context, run *domain.Run, recorder *StepRecorder) (string, error) {
	started := time.Now()

	task := run.InputText
	if run.ConversationID != "" {
		history, err := s.history.LoadRecent(ctx, run.ConversationID)
		if err != nil {
			return "", fmt.Errorf("load conversation history: %w", err)
		}
		if len(history) > 0 {
			task = FormatTask(history, run.InputText)
			err := recorder.Record(ctx, domain.StepDraft{
				StepType:   domain.StepTypeLLMCall,
				OutputData: map[string]any{"info": fmt.Sprintf("Loaded %d previous messages", len(history))},
			})
			if err != nil {
				return "", err
			}
		}
	}

	err := recorder.Record(ctx, domain.StepDraft{
		StepType:  domain.StepTypeLLMCall,
		InputData: map[string]any{"user_input": run.InputText},
	})
	if err != nil {
		return "", err
	}

	agentCfg, err := s.store.GetAgent(ctx, run.AgentID)
	if err != nil {
		return "", fmt.Errorf("load agent %s: %w", run.AgentID, err)
	}
	if agentCfg == nil {
		return "", fmt.Errorf("agent %s not found", run.AgentID)
	}

	inv := tools.Invocation{UserID: run.UserID, AgentID: run.AgentID, RunID: run.RunID}
	caps, err := agent.BuildCapabilities(agentCfg, s.gateway, s.vector, inv)
	if err != nil {
		return "", err
	}

	loop := agent.New(s.llm, s.config.LLMModel, agentCfg.SystemPrompt, caps, recorder, s.config.MaxLoopCycles)
	answer, err := loop.Run(ctx, task)
	if err != nil {
		return "", err
	}

	if run.ConversationID != "" {
		if err := s.history.Append(ctx, run.ConversationID, "user", run.InputText); err != nil {
			return "", err
		}
		if err := s.history.Append(ctx, run.ConversationID, "assistant", answer); err != nil {
			return "", err
		}
	}

	duration := time.Since(started).Milliseconds()
	err = recorder.Record(ctx, domain.StepDraft{
		StepType:   domain.StepTypeFinalAnswer,
		OutputData: map[string]any{"answer": answer},
		DurationMs: &duration,
	})
	if err != nil {
		return "", err
	}

	return answer, nil
}

// failRun records an error step and moves the run to FAILED. Both writes are
// best-effort at this point; failures are only logged.
func (s *Service) failRun(ctx context.Context, recorder *StepRecorder, runID, message string) {
	err := recorder.Record(ctx, domain.StepDraft{
		StepType:     domain.StepTypeError,
		ErrorMessage: message,
	})
	if err != nil {
		log.Printf("ERROR: record error step for run %s: %v", runID, err)
	}
	if err := s.store.UpdateRunFailed(ctx, runID, message, time.Now().UTC()); err != nil {
		log.Printf("ERROR: mark run %s failed: %v", runID, err)
	}
}
