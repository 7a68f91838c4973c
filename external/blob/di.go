package blob

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/shirakawalab/kikitori/internal/blob"
	"github.com/shirakawalab/kikitori/internal/config"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (blob.Store, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.StorageBackend {
		case config.StorageBackendLocal:
			return NewLocalStore(c.LocalStorageDir, c.PublicBaseURL), nil
		case config.StorageBackendGCS:
			return NewGCSStore(context.Background(), GCSConfig{
				Bucket:              c.GCSBucket,
				ServiceAccountEmail: c.GCSServiceAccountEmail,
				PrivateKey:          c.GCSPrivateKey,
				CredentialsJSON:     c.GoogleCloudCredentialsJSON,
			})
		default:
			return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
		}
	})
}
