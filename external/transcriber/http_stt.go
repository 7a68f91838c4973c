package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shirakawalab/kikitori/internal/transcriber"
)

// HTTPConfig is the full provider contract surface. It is populated only in
// the composition root; nothing in here reads the environment.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	WebhookURL string
	Language   string
}

// HTTPTranscriber dispatches transcription requests to a callback-style
// speech-to-text HTTP API.
type HTTPTranscriber struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPTranscriber(cfg HTTPConfig) transcriber.Transcriber {
	return &HTTPTranscriber{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type dispatchBody struct {
	AudioURL    string `json:"audio_url"`
	CallbackURL string `json:"callback_url"`
	AnswerID    string `json:"answer_id"`
	Language    string `json:"language"`
}

type dispatchResponse struct {
	RequestID string `json:"request_id"`
}

func (t *HTTPTranscriber) Dispatch(ctx context.Context, req transcriber.DispatchRequest) (*transcriber.DispatchAck, error) {
	language := req.Language
	if language == "" {
		language = t.cfg.Language
	}

	b, err := json.Marshal(dispatchBody{
		AudioURL:    req.AudioURL,
		CallbackURL: t.cfg.WebhookURL,
		AnswerID:    req.AnswerID,
		Language:    language,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/transcribe", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("stt api returned status %d: %s", resp.StatusCode, string(body))
	}

	var ack dispatchResponse
	// The ack body shape is provider specific; a missing request id is not
	// an error, the correlation key is the answer id.
	_ = json.Unmarshal(body, &ack)
	return &transcriber.DispatchAck{RequestID: ack.RequestID}, nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
