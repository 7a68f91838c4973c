package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shirakawalab/kikitori/internal/blob"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/queue"
	"github.com/shirakawalab/kikitori/internal/repository"
	"github.com/shirakawalab/kikitori/internal/transcriber"
)

// TaskTypeTranscribeAnswer is the single task type this system schedules.
const TaskTypeTranscribeAnswer = "transcribe_answer"

// ErrDuplicateAnswer is returned when the question already has an answer.
var ErrDuplicateAnswer = errors.New("lifecycle: question already answered")

type transcribeTaskPayload struct {
	AnswerID string `json:"answer_id"`
}

// CallbackOutcome describes what a webhook delivery did to the answer.
type CallbackOutcome int

const (
	// CallbackApplied means the transcript was stored and the answer is
	// now completed.
	CallbackApplied CallbackOutcome = iota
	// CallbackIgnoredLate means the guarded policy found the answer
	// already terminal and left it untouched.
	CallbackIgnoredLate
)

// Service owns every stt_status transition. The submission path and the
// admin re-dispatch path enqueue work; the job path and the webhook path
// apply transitions through the repository's conditional updates.
type Service struct {
	cfg         *config.Config
	repo        repository.Repository
	enqueuer    queue.Enqueuer
	transcriber transcriber.Transcriber
	blobs       blob.Store
}

func NewService(cfg *config.Config, repo repository.Repository, enqueuer queue.Enqueuer, stt transcriber.Transcriber, blobs blob.Store) *Service {
	return &Service{
		cfg:         cfg,
		repo:        repo,
		enqueuer:    enqueuer,
		transcriber: stt,
		blobs:       blobs,
	}
}

// SubmitAnswer stores the uploaded audio, creates the answer in pending
// state and enqueues its transcription. The enqueue is fire-and-forget;
// the caller observes progress through later status reads.
func (s *Service) SubmitAnswer(ctx context.Context, questionID, contentType string, audio io.Reader) (*repository.Answer, error) {
	key := fmt.Sprintf("answers/%s/audio%s", uuid.NewString(), extensionFor(contentType))
	if err := s.blobs.Save(ctx, key, contentType, audio); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	answer, err := s.repo.CreateAnswer(ctx, repository.CreateAnswerInput{
		InterviewQuestionID: questionID,
		AudioObjectKey:      key,
		AudioContentType:    contentType,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			slog.Warn("duplicate answer submission", "question_id", questionID)
			return nil, ErrDuplicateAnswer
		}
		return nil, err
	}
	slog.Info("answer created", "answer_id", answer.ID, "question_id", questionID, "object_key", key)

	if err := s.EnqueueTranscription(ctx, answer.ID); err != nil {
		// The answer stays pending; an admin can re-dispatch it.
		slog.Error("failed to enqueue transcription", "error", err, "answer_id", answer.ID)
	}
	return answer, nil
}

// EnqueueTranscription schedules the transcription job for an answer and
// returns as soon as the task is queued.
func (s *Service) EnqueueTranscription(ctx context.Context, answerID string) error {
	taskID, err := s.enqueuer.Enqueue(ctx, TaskTypeTranscribeAnswer, transcribeTaskPayload{AnswerID: answerID})
	if err != nil {
		return err
	}
	slog.Info("transcription enqueued", "answer_id", answerID, "task_id", taskID)
	return nil
}

// ProcessTranscription is the job body. Precondition failures (missing
// answer, no audio, not pending) are no-ops, not errors, so duplicate or
// stale tasks drain harmlessly. A dispatch failure moves the answer to
// failed and still returns nil: the queue must not re-attempt a
// misbehaving provider.
func (s *Service) ProcessTranscription(ctx context.Context, answerID string) error {
	answer, err := s.repo.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("transcription task for unknown answer", "answer_id", answerID)
			return nil
		}
		return err
	}
	if answer.Status != repository.AnswerStatusPending {
		slog.Info("skipping transcription, answer not pending", "answer_id", answerID, "status", string(answer.Status))
		return nil
	}
	if !answer.HasAudio() {
		slog.Warn("skipping transcription, answer has no audio", "answer_id", answerID)
		return nil
	}

	claimed, err := s.repo.MarkAnswerProcessing(ctx, answerID)
	if err != nil {
		return err
	}
	if !claimed {
		slog.Info("skipping transcription, answer claimed elsewhere", "answer_id", answerID)
		return nil
	}

	audioURL, err := s.blobs.ResolveURL(ctx, *answer.AudioObjectKey)
	if err != nil {
		slog.Error("failed to resolve audio url", "error", err, "answer_id", answerID)
		s.markFailed(ctx, answerID)
		return nil
	}

	ack, err := s.transcriber.Dispatch(ctx, transcriber.DispatchRequest{
		AudioURL: audioURL,
		AnswerID: answerID,
		Language: s.cfg.DefaultTranscribeLanguage,
	})
	if err != nil {
		slog.Error("stt dispatch failed", "error", err, "answer_id", answerID)
		s.markFailed(ctx, answerID)
		return nil
	}

	slog.Info("stt dispatch accepted", "answer_id", answerID, "request_id", ack.RequestID)
	return nil
}

func (s *Service) markFailed(ctx context.Context, answerID string) {
	if err := s.repo.MarkAnswerFailed(ctx, answerID); err != nil {
		slog.Error("failed to mark answer failed", "error", err, "answer_id", answerID)
	}
}

// ApplyCallback reconciles a provider callback against the answer state.
// Under the guarded policy a callback for an already-terminal answer is
// ignored; under provider_wins it overwrites. Both paths are idempotent.
// Returns repository.ErrNotFound when no such answer exists.
func (s *Service) ApplyCallback(ctx context.Context, answerID string, transcript json.RawMessage) (CallbackOutcome, error) {
	applied, err := s.repo.CompleteAnswer(ctx, repository.CompleteAnswerInput{
		AnswerID:   answerID,
		Transcript: transcript,
		Guarded:    s.cfg.GuardedCompletion(),
	})
	if err != nil {
		return CallbackIgnoredLate, err
	}
	if !applied {
		slog.Info("late callback ignored", "answer_id", answerID)
		return CallbackIgnoredLate, nil
	}
	slog.Info("transcript stored", "answer_id", answerID)
	return CallbackApplied, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/x-m4a":
		return ".m4a"
	default:
		return ".bin"
	}
}
