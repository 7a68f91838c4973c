package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirakawalab/kikitori/internal/lifecycle"
	"github.com/shirakawalab/kikitori/internal/repository"
)

type sttCallbackPayload struct {
	AnswerID       string          `json:"answer_id" validate:"required,uuid"`
	TranscriptData json.RawMessage `json:"transcript_data" validate:"required"`
}

// STTWebhook receives the provider's completion callback. It arrives at an
// arbitrary time with no ordering guarantee relative to the dispatching
// job, so all reconciliation goes through the lifecycle service.
func (h *handlers) STTWebhook(c *gin.Context) {
	var payload sttCallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		slog.Error("stt webhook: invalid json payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json payload"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		slog.Error("stt webhook: payload failed validation", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}

	outcome, err := h.svc.ApplyCallback(c.Request.Context(), payload.AnswerID, payload.TranscriptData)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Possibly a stale or duplicate callback; not our error.
			slog.Warn("stt webhook: answer not found", "answer_id", payload.AnswerID)
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "answer not found"})
			return
		}
		slog.Error("stt webhook: failed to process callback", "error", err, "answer_id", payload.AnswerID)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal server error"})
		return
	}

	switch outcome {
	case lifecycle.CallbackIgnoredLate:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "late callback ignored"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
