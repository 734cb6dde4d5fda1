package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"venue-backend/internal/config"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStorage(filepath.Join(dir, "imagenes"))

	if err := s.Save(ctx, "abc.png", "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}

	r, err := s.Open(ctx, "abc.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "png-bytes" {
		t.Fatalf("read back %q", data)
	}

	if err := s.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "imagenes", "abc.png")); !os.IsNotExist(err) {
		t.Fatalf("file still present after delete: %v", err)
	}
	if _, err := s.Open(ctx, "abc.png"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("open after delete = %v, want ErrNotExist", err)
	}
	// deleting twice is fine
	if err := s.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	for _, key := range []string{"", "..", "../etc/passwd", "a/b.png", `a\b.png`} {
		if _, err := s.Open(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Open(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	fs, err := New(context.Background(), config.StorageConfig{LocalPath: t.TempDir()})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := fs.(*LocalStorage); !ok {
		t.Fatalf("default driver should be local, got %T", fs)
	}
}
