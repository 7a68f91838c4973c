package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/shirakawalab/kikitori/internal/blob"
	"google.golang.org/api/option"
)

const signedURLTTL = 30 * time.Minute

type GCSConfig struct {
	Bucket              string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsJSON     string
}

type GCSStore struct {
	cfg    GCSConfig
	client *storage.Client
}

func NewGCSStore(ctx context.Context, cfg GCSConfig) (blob.Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{cfg: cfg, client: client}, nil
}

func (s *GCSStore) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	w := s.client.Bucket(s.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	return w.Close()
}

// ResolveURL issues a V4 signed download URL so the STT provider can fetch
// the audio without bucket credentials.
func (s *GCSStore) ResolveURL(_ context.Context, key string) (string, error) {
	// Env values often carry literal \n sequences in the private key.
	privateKey := strings.ReplaceAll(s.cfg.PrivateKey, `\n`, "\n")

	return storage.SignedURL(s.cfg.Bucket, key, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(signedURLTTL),
		GoogleAccessID: s.cfg.ServiceAccountEmail,
		PrivateKey:     []byte(privateKey),
	})
}
