package blob

import (
	"context"
	"io"
)

// Store persists uploaded audio and hands out URLs the STT provider can
// fetch. Objects are write-once; keys are generated by the caller.
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	// ResolveURL returns a publicly resolvable URL for the object. The
	// URL may be short-lived (signed).
	ResolveURL(ctx context.Context, key string) (string, error)
}
