package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/google/uuid"
	"github.com/shirakawalab/kikitori/internal/transcriber"
	"google.golang.org/api/option"
)

const (
	speechAPIEndpointPort = 443
	recognizeTimeout      = 5 * time.Minute
	maxAudioDownloadBytes = 25 << 20
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
	Language        string
	WebhookURL      string
	WebhookSecret   string
}

// CloudSpeechTranscriber runs Google Cloud Speech recognition in-process and
// delivers the result the same way an external callback provider would: by
// POSTing the standard payload to the configured webhook URL. The lifecycle
// stays callback driven regardless of which provider is configured.
type CloudSpeechTranscriber struct {
	cfg    CloudSpeechConfig
	client *http.Client
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	cfg.Location = strings.TrimSpace(cfg.Location)
	cfg.Model = strings.TrimSpace(cfg.Model)

	return &CloudSpeechTranscriber{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (t *CloudSpeechTranscriber) Dispatch(_ context.Context, req transcriber.DispatchRequest) (*transcriber.DispatchAck, error) {
	language := req.Language
	if language == "" {
		language = t.cfg.Language
	}
	requestID := uuid.NewString()

	// Recognition outlives the dispatching task, same as a remote
	// provider's processing window. A failure here means no callback ever
	// arrives, which the lifecycle already tolerates.
	go t.recognizeAndDeliver(requestID, req.AudioURL, req.AnswerID, language)

	return &transcriber.DispatchAck{RequestID: requestID}, nil
}

func (t *CloudSpeechTranscriber) recognizeAndDeliver(requestID, audioURL, answerID, language string) {
	ctx, cancel := context.WithTimeout(context.Background(), recognizeTimeout)
	defer cancel()

	audio, err := t.fetchAudio(ctx, audioURL)
	if err != nil {
		slog.Error("cloud speech: failed to fetch audio", "error", err, "request_id", requestID, "answer_id", answerID)
		return
	}

	payload, err := t.recognize(ctx, audio, language)
	if err != nil {
		slog.Error("cloud speech: recognition failed", "error", err, "request_id", requestID, "answer_id", answerID)
		return
	}

	if err := t.deliverCallback(ctx, answerID, payload); err != nil {
		slog.Error("cloud speech: callback delivery failed", "error", err, "request_id", requestID, "answer_id", answerID)
		return
	}
	slog.Info("cloud speech: transcript delivered", "request_id", requestID, "answer_id", answerID)
}

func (t *CloudSpeechTranscriber) fetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAudioDownloadBytes))
}

type transcriptWord struct {
	Word    string `json:"word"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

type transcriptData struct {
	Text  string           `json:"text"`
	Words []transcriptWord `json:"words"`
}

func (t *CloudSpeechTranscriber) recognize(ctx context.Context, audio []byte, language string) (*transcriptData, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.cfg.Location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.cfg.Location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = client.Close()
	}()

	recognizer := fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.cfg.ProjectID, t.cfg.Location)
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: recognizer,
		Config: &speechpb.RecognitionConfig{
			Model:         t.cfg.Model,
			LanguageCodes: []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableWordTimeOffsets: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audio},
	})
	if err != nil {
		return nil, err
	}

	data := &transcriptData{Words: []transcriptWord{}}
	var parts []string
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		alt := result.GetAlternatives()[0]
		parts = append(parts, alt.GetTranscript())
		for _, w := range alt.GetWords() {
			data.Words = append(data.Words, transcriptWord{
				Word:    w.GetWord(),
				StartMs: w.GetStartOffset().AsDuration().Milliseconds(),
				EndMs:   w.GetEndOffset().AsDuration().Milliseconds(),
			})
		}
	}
	data.Text = strings.Join(parts, " ")
	return data, nil
}

func (t *CloudSpeechTranscriber) deliverCallback(ctx context.Context, answerID string, data *transcriptData) error {
	b, err := json.Marshal(map[string]any{
		"answer_id":       answerID,
		"transcript_data": data,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.WebhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.cfg.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Secret", t.cfg.WebhookSecret)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
