package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_SaveAndResolve(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "http://localhost:8080/")

	key := "answers/abc/audio.webm"
	if err := store.Save(context.Background(), key, "audio/webm", strings.NewReader("opus bytes")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "answers", "abc", "audio.webm"))
	if err != nil {
		t.Fatalf("expected object on disk: %v", err)
	}
	if string(data) != "opus bytes" {
		t.Fatalf("unexpected object content: %s", data)
	}

	url, err := store.ResolveURL(context.Background(), key)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if url != "http://localhost:8080/media/answers/abc/audio.webm" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestLocalStore_RejectsPathEscape(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:8080")
	if err := store.Save(context.Background(), "../outside", "audio/webm", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for path escape")
	}
	if _, err := store.ResolveURL(context.Background(), "a/../../b"); err == nil {
		t.Fatal("expected error for path escape in resolve")
	}
}
