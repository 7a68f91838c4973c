package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/lifecycle"
	"github.com/shirakawalab/kikitori/internal/repository"
)

type handlers struct {
	cfg      *config.Config
	repo     repository.Repository
	svc      *lifecycle.Service
	validate *validator.Validate
}

func (h *handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type questionView struct {
	ID           string          `json:"id"`
	QuestionText string          `json:"question_text"`
	DisplayOrder int             `json:"display_order"`
	AnswerStatus string          `json:"answer_status,omitempty"`
	Transcript   json.RawMessage `json:"transcript,omitempty"`
}

type interviewView struct {
	ID               string         `json:"id"`
	IntervieweeName  string         `json:"interviewee_name"`
	IntervieweeEmail string         `json:"interviewee_email,omitempty"`
	Status           string         `json:"status"`
	UniqueLinkID     string         `json:"unique_link_id"`
	Questions        []questionView `json:"questions"`
}

// GetPublicInterview serves the interviewee-facing view: questions plus
// enough answer state to disable re-recording on answered ones. It never
// exposes transcripts.
func (h *handlers) GetPublicInterview(c *gin.Context) {
	interview, err := h.repo.GetInterviewByLinkID(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "interview not found"})
			return
		}
		slog.Error("failed to load interview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	view, err := h.buildInterviewView(c, interview, false)
	if err != nil {
		slog.Error("failed to load interview questions", "error", err, "interview_id", interview.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": view})
}

// SubmitAnswer accepts a multipart recording for one question and enqueues
// its transcription. Validation failures are rejected here, before any
// task exists.
func (h *handlers) SubmitAnswer(c *gin.Context) {
	interview, err := h.repo.GetInterviewByLinkID(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "interview not found"})
			return
		}
		slog.Error("failed to load interview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	question, err := h.repo.GetQuestionByID(c.Request.Context(), c.Param("question_id"))
	if err != nil || question.InterviewID != interview.ID {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to load question", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "question not found"})
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "audio file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded audio", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	defer func() {
		_ = src.Close()
	}()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	answer, err := h.svc.SubmitAnswer(c.Request.Context(), question.ID, contentType, src)
	if err != nil {
		if errors.Is(err, lifecycle.ErrDuplicateAnswer) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "question already answered"})
			return
		}
		slog.Error("failed to submit answer", "error", err, "question_id", question.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "answer submitted successfully",
		"data":    gin.H{"answer_id": answer.ID, "stt_status": string(answer.Status)},
	})
}

func (h *handlers) buildInterviewView(c *gin.Context, interview *repository.Interview, includeTranscripts bool) (*interviewView, error) {
	questions, err := h.repo.ListQuestionsByInterviewID(c.Request.Context(), interview.ID)
	if err != nil {
		return nil, err
	}
	answers, err := h.repo.ListAnswersByInterviewID(c.Request.Context(), interview.ID)
	if err != nil {
		return nil, err
	}
	answersByQuestion := make(map[string]repository.Answer, len(answers))
	for _, a := range answers {
		answersByQuestion[a.InterviewQuestionID] = a
	}

	view := &interviewView{
		ID:               interview.ID,
		IntervieweeName:  interview.IntervieweeName,
		IntervieweeEmail: interview.IntervieweeEmail,
		Status:           string(interview.Status),
		UniqueLinkID:     interview.UniqueLinkID,
		Questions:        make([]questionView, 0, len(questions)),
	}
	for _, q := range questions {
		qv := questionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			DisplayOrder: q.DisplayOrder,
		}
		if a, ok := answersByQuestion[q.ID]; ok {
			qv.AnswerStatus = string(a.Status)
			if includeTranscripts {
				qv.Transcript = a.TranscriptResult
			}
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}
