package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	internalconfig "github.com/shirakawalab/kikitori/internal/config"
)

type envConfig struct {
	Env           string `env:"ENV" envDefault:"production"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`
	AdminAPIKey   string `env:"ADMIN_API_KEY,required"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	DefaultTranscribeLanguage string `env:"DEFAULT_TRANSCRIBE_LANGUAGE" envDefault:"ko-KR"`
	STTProvider               string `env:"STT_PROVIDER" envDefault:"http"`
	STTAPIBaseURL             string `env:"STT_API_BASE_URL"`
	STTAPIKey                 string `env:"STT_API_KEY"`
	STTWebhookURL             string `env:"STT_WEBHOOK_URL"`
	STTWebhookSecret          string `env:"STT_WEBHOOK_SECRET"`
	CompletionPolicy          string `env:"WEBHOOK_COMPLETION_POLICY" envDefault:"guarded"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`

	StorageBackend         string `env:"STORAGE_BACKEND" envDefault:"local"`
	LocalStorageDir        string `env:"LOCAL_STORAGE_DIR" envDefault:"./storage"`
	GCSBucket              string `env:"GCS_BUCKET"`
	GCSServiceAccountEmail string `env:"GCS_SERVICE_ACCOUNT_EMAIL"`
	GCSPrivateKey          string `env:"GCS_PRIVATE_KEY"`

	WorkerConcurrency     int `env:"WORKER_CONCURRENCY" envDefault:"2"`
	WorkerPollIntervalSec int `env:"WORKER_POLL_INTERVAL_SECONDS" envDefault:"2"`
}

func Load() (*internalconfig.Config, error) {
	// A .env file only exists in local development; its absence is fine.
	_ = godotenv.Load()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		PublicBaseURL:              strings.TrimRight(raw.PublicBaseURL, "/"),
		AdminAPIKey:                raw.AdminAPIKey,
		DatabaseURL:                raw.DatabaseURL,
		DefaultTranscribeLanguage:  raw.DefaultTranscribeLanguage,
		STTProvider:                raw.STTProvider,
		STTAPIBaseURL:              strings.TrimRight(raw.STTAPIBaseURL, "/"),
		STTAPIKey:                  raw.STTAPIKey,
		STTWebhookURL:              raw.STTWebhookURL,
		STTWebhookSecret:           raw.STTWebhookSecret,
		CompletionPolicy:           raw.CompletionPolicy,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		StorageBackend:             raw.StorageBackend,
		LocalStorageDir:            raw.LocalStorageDir,
		GCSBucket:                  raw.GCSBucket,
		GCSServiceAccountEmail:     raw.GCSServiceAccountEmail,
		GCSPrivateKey:              raw.GCSPrivateKey,
		WorkerConcurrency:          raw.WorkerConcurrency,
		WorkerPollIntervalSec:      raw.WorkerPollIntervalSec,
	}
	if cfg.STTWebhookURL == "" {
		cfg.STTWebhookURL = cfg.PublicBaseURL + "/api/stt-webhook"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
