package transcriber

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.STTProvider {
		case config.STTProviderHTTP:
			return NewHTTPTranscriber(HTTPConfig{
				BaseURL:    c.STTAPIBaseURL,
				APIKey:     c.STTAPIKey,
				WebhookURL: c.STTWebhookURL,
				Language:   c.DefaultTranscribeLanguage,
			}), nil
		case config.STTProviderGoogle:
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
				Language:        c.DefaultTranscribeLanguage,
				WebhookURL:      c.STTWebhookURL,
				WebhookSecret:   c.STTWebhookSecret,
			}), nil
		default:
			return nil, fmt.Errorf("unknown stt provider %q", c.STTProvider)
		}
	})
}
