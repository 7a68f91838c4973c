package repository

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict signals a uniqueness violation, e.g. a second answer for
	// the same question.
	ErrConflict = errors.New("repository: conflict")
)

type QuestionInput struct {
	QuestionText string
	DisplayOrder int
}

type CreateInterviewInput struct {
	IntervieweeName  string
	IntervieweeEmail string
	UniqueLinkID     string
	Questions        []QuestionInput
}

type CreateAnswerInput struct {
	InterviewQuestionID string
	AudioObjectKey      string
	AudioContentType    string
}

// CompleteAnswerInput carries a webhook result into the store. When Guarded
// is set the completion is applied atomically only from a non-terminal
// status; otherwise the provider result overwrites unconditionally.
type CompleteAnswerInput struct {
	AnswerID   string
	Transcript json.RawMessage
	Guarded    bool
}

type InterviewRepository interface {
	CreateInterview(ctx context.Context, input CreateInterviewInput) (*Interview, error)
	GetInterviewByID(ctx context.Context, id string) (*Interview, error)
	GetInterviewByLinkID(ctx context.Context, linkID string) (*Interview, error)
	ListInterviews(ctx context.Context) ([]Interview, error)
	ListQuestionsByInterviewID(ctx context.Context, interviewID string) ([]InterviewQuestion, error)
	GetQuestionByID(ctx context.Context, id string) (*InterviewQuestion, error)
	DeleteInterview(ctx context.Context, id string) error
}

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, input CreateAnswerInput) (*Answer, error)
	GetAnswer(ctx context.Context, id string) (*Answer, error)
	ListAnswersByInterviewID(ctx context.Context, interviewID string) ([]Answer, error)
	// MarkAnswerProcessing performs the pending -> processing transition.
	// It reports false without error when the answer was not pending.
	MarkAnswerProcessing(ctx context.Context, id string) (bool, error)
	// MarkAnswerFailed moves a non-terminal answer to failed. Moving an
	// already-terminal answer is a no-op.
	MarkAnswerFailed(ctx context.Context, id string) error
	// CompleteAnswer stores the transcript and moves the answer to
	// completed per CompleteAnswerInput.Guarded. It reports false when a
	// guarded completion found the answer already terminal.
	CompleteAnswer(ctx context.Context, input CompleteAnswerInput) (bool, error)
}

type Repository interface {
	InterviewRepository
	AnswerRepository
}
