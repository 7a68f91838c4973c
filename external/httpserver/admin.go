package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shirakawalab/kikitori/internal/repository"
)

type createInterviewRequest struct {
	IntervieweeName  string   `json:"interviewee_name" validate:"required"`
	IntervieweeEmail string   `json:"interviewee_email" validate:"omitempty,email"`
	Questions        []string `json:"questions" validate:"required,min=1,dive,required"`
}

func (h *handlers) CreateInterview(c *gin.Context) {
	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	input := repository.CreateInterviewInput{
		IntervieweeName:  req.IntervieweeName,
		IntervieweeEmail: req.IntervieweeEmail,
		UniqueLinkID:     uuid.NewString(),
	}
	for i, text := range req.Questions {
		input.Questions = append(input.Questions, repository.QuestionInput{
			QuestionText: text,
			DisplayOrder: i + 1,
		})
	}

	interview, err := h.repo.CreateInterview(c.Request.Context(), input)
	if err != nil {
		slog.Error("failed to create interview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{
		"id":             interview.ID,
		"unique_link_id": interview.UniqueLinkID,
	}})
}

func (h *handlers) ListInterviews(c *gin.Context) {
	interviews, err := h.repo.ListInterviews(c.Request.Context())
	if err != nil {
		slog.Error("failed to list interviews", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	items := make([]gin.H, 0, len(interviews))
	for _, iv := range interviews {
		items = append(items, gin.H{
			"id":                iv.ID,
			"interviewee_name":  iv.IntervieweeName,
			"interviewee_email": iv.IntervieweeEmail,
			"status":            string(iv.Status),
			"unique_link_id":    iv.UniqueLinkID,
			"created_at":        iv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": items})
}

// GetInterview returns the admin view, transcripts included.
func (h *handlers) GetInterview(c *gin.Context) {
	interview, err := h.repo.GetInterviewByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "interview not found"})
			return
		}
		slog.Error("failed to load interview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	view, err := h.buildInterviewView(c, interview, true)
	if err != nil {
		slog.Error("failed to load interview details", "error", err, "interview_id", interview.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": view})
}

func (h *handlers) DeleteInterview(c *gin.Context) {
	if err := h.repo.DeleteInterview(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "interview not found"})
			return
		}
		slog.Error("failed to delete interview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "interview deleted"})
}

// TranscribeAnswer re-enqueues transcription for an answer. The job itself
// decides whether the answer is still eligible, so requeueing a completed
// answer is harmless.
func (h *handlers) TranscribeAnswer(c *gin.Context) {
	answerID := c.Param("id")
	if _, err := h.repo.GetAnswer(c.Request.Context(), answerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "answer not found"})
			return
		}
		slog.Error("failed to load answer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	if err := h.svc.EnqueueTranscription(c.Request.Context(), answerID); err != nil {
		slog.Error("failed to enqueue transcription", "error", err, "answer_id", answerID)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "success", "message": "transcription enqueued"})
}
