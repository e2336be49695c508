package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentforge/agentforge/internal/domain"
	"github.com/agentforge/agentforge/internal/store"
)

// StepRecorder persists execution steps for a single run. It owns the step
// ordering counter; callers hand it drafts and never pick order values
// themselves. A persistence failure is returned as-is and aborts the run.
type StepRecorder struct {
	store store.Store
	runID string
	next  int
}

func NewStepRecorder(st store.Store, runID string) *StepRecorder {
	return &StepRecorder{store: st, runID: runID}
}

// Record assigns the next step order and inserts the step.
func (r *StepRecorder) Record(ctx context.Context, draft domain.StepDraft) error {
	input, err := marshalStepData(draft.InputData)
	if err != nil {
		return fmt.Errorf("marshal step input: %w", err)
	}
	output, err := marshalStepData(draft.OutputData)
	if err != nil {
		return fmt.Errorf("marshal step output: %w", err)
	}

	step := &domain.RunStep{
		StepID:       "step_" + uuid.New().String()[:8],
		RunID:        r.runID,
		StepOrder:    r.next,
		StepType:     draft.StepType,
		InputData:    input,
		OutputData:   output,
		ToolName:     draft.ToolName,
		ErrorMessage: draft.ErrorMessage,
		CreatedAt:    time.Now().UTC(),
		DurationMs:   draft.DurationMs,
	}
	if err := r.store.CreateRunStep(ctx, step); err != nil {
		return fmt.Errorf("record step %d (%s): %w", step.StepOrder, step.StepType, err)
	}
	r.next++
	return nil
}

func marshalStepData(data map[string]any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}
