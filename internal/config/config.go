package config

import (
	"fmt"
	"strings"
)

const (
	STTProviderHTTP   = "http"
	STTProviderGoogle = "google"

	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"

	CompletionPolicyGuarded      = "guarded"
	CompletionPolicyProviderWins = "provider_wins"
)

type Config struct {
	Env           string
	HTTPAddr      string
	PublicBaseURL string
	AdminAPIKey   string

	DatabaseURL string

	DefaultTranscribeLanguage string
	STTProvider               string
	STTAPIBaseURL             string
	STTAPIKey                 string
	STTWebhookURL             string
	STTWebhookSecret          string
	CompletionPolicy          string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	StorageBackend         string
	LocalStorageDir        string
	GCSBucket              string
	GCSServiceAccountEmail string
	GCSPrivateKey          string

	WorkerConcurrency     int
	WorkerPollIntervalSec int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}

	switch c.STTProvider {
	case STTProviderHTTP:
		if c.STTAPIBaseURL == "" {
			return fmt.Errorf("STT_API_BASE_URL is required when STT_PROVIDER=%s", STTProviderHTTP)
		}
	case STTProviderGoogle:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when STT_PROVIDER=%s", STTProviderGoogle)
		}
	default:
		return fmt.Errorf("STT_PROVIDER must be %q or %q, got %q", STTProviderHTTP, STTProviderGoogle, c.STTProvider)
	}

	switch c.StorageBackend {
	case StorageBackendLocal:
		if c.LocalStorageDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR is required when STORAGE_BACKEND=%s", StorageBackendLocal)
		}
	case StorageBackendGCS:
		if c.GCSBucket == "" || c.GCSServiceAccountEmail == "" || c.GCSPrivateKey == "" {
			return fmt.Errorf("GCS_BUCKET, GCS_SERVICE_ACCOUNT_EMAIL and GCS_PRIVATE_KEY are required when STORAGE_BACKEND=%s", StorageBackendGCS)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageBackendLocal, StorageBackendGCS, c.StorageBackend)
	}

	if c.CompletionPolicy != CompletionPolicyGuarded && c.CompletionPolicy != CompletionPolicyProviderWins {
		return fmt.Errorf("WEBHOOK_COMPLETION_POLICY must be %q or %q, got %q", CompletionPolicyGuarded, CompletionPolicyProviderWins, c.CompletionPolicy)
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	}
	if c.WorkerPollIntervalSec <= 0 {
		return fmt.Errorf("WORKER_POLL_INTERVAL_SECONDS must be positive, got %d", c.WorkerPollIntervalSec)
	}
	if !strings.HasPrefix(c.PublicBaseURL, "http://") && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) URL, got %q", c.PublicBaseURL)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "PUBLIC_BASE_URL", value: c.PublicBaseURL},
		{name: "ADMIN_API_KEY", value: c.AdminAPIKey},
		{name: "DEFAULT_TRANSCRIBE_LANGUAGE", value: c.DefaultTranscribeLanguage},
		{name: "STT_WEBHOOK_URL", value: c.STTWebhookURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) GuardedCompletion() bool {
	return c.CompletionPolicy == CompletionPolicyGuarded
}
