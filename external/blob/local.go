package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirakawalab/kikitori/internal/blob"
)

// LocalStore keeps audio on the local filesystem. Objects are served back
// through the HTTP server's /media route, so resolved URLs are only
// reachable where the app itself is.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) blob.Store {
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Save(_ context.Context, key, _ string, r io.Reader) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *LocalStore) ResolveURL(_ context.Context, key string) (string, error) {
	if _, err := s.objectPath(key); err != nil {
		return "", err
	}
	return s.baseURL + "/media/" + key, nil
}

// objectPath maps a key to its on-disk location, rejecting path escapes.
func (s *LocalStore) objectPath(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}
