package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shirakawalab/kikitori/internal/queue"
)

// TranscribeProcessor adapts the lifecycle service to the queue.
type TranscribeProcessor struct {
	svc *Service
}

func NewTranscribeProcessor(svc *Service) *TranscribeProcessor {
	return &TranscribeProcessor{svc: svc}
}

func (p *TranscribeProcessor) TaskType() string { return TaskTypeTranscribeAnswer }

func (p *TranscribeProcessor) Process(ctx context.Context, task *queue.Task) error {
	var payload transcribeTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal task payload: %w", err)
	}
	if payload.AnswerID == "" {
		return fmt.Errorf("task %d has no answer_id", task.ID)
	}
	return p.svc.ProcessTranscription(ctx, payload.AnswerID)
}
