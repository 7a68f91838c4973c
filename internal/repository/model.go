package repository

import (
	"encoding/json"
	"time"
)

// AnswerStatus is the transcription state of an answer. Transitions are
// validated through CanTransition; repository implementations must not
// write a status the table rejects.
type AnswerStatus string

const (
	AnswerStatusPending    AnswerStatus = "pending"
	AnswerStatusProcessing AnswerStatus = "processing"
	AnswerStatusCompleted  AnswerStatus = "completed"
	AnswerStatusFailed     AnswerStatus = "failed"
)

func (s AnswerStatus) Valid() bool {
	switch s {
	case AnswerStatusPending, AnswerStatusProcessing, AnswerStatusCompleted, AnswerStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition leaves s.
func (s AnswerStatus) Terminal() bool {
	return s == AnswerStatusCompleted || s == AnswerStatusFailed
}

// CanTransition is the single source of truth for the answer state machine:
// pending -> processing -> {completed | failed}, with completed also
// reachable straight from pending (a callback can outrun the job's own
// processing mark).
func CanTransition(from, to AnswerStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case AnswerStatusProcessing:
		return from == AnswerStatusPending
	case AnswerStatusCompleted, AnswerStatusFailed:
		return from == AnswerStatusPending || from == AnswerStatusProcessing
	}
	return false
}

type InterviewStatus string

const (
	InterviewStatusPending   InterviewStatus = "pending"
	InterviewStatusCompleted InterviewStatus = "completed"
)

type Interview struct {
	ID               string
	IntervieweeName  string
	IntervieweeEmail string
	Status           InterviewStatus
	UniqueLinkID     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type InterviewQuestion struct {
	ID           string
	InterviewID  string
	QuestionText string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Answer struct {
	ID                  string
	InterviewQuestionID string
	Status              AnswerStatus
	// TranscriptResult is nil unless Status is completed.
	TranscriptResult json.RawMessage
	AudioObjectKey   *string
	AudioContentType *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (a *Answer) HasAudio() bool {
	return a.AudioObjectKey != nil && *a.AudioObjectKey != ""
}
