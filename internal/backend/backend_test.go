package backend

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
)

func TestFileBackend(t *testing.T) {
	b := NewFileBackend(afero.NewMemMapFs())

	if b.Exists("/data/img.jpg") {
		t.Fatal("expected missing file")
	}
	if _, err := b.Get("/data/img.jpg"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if err := b.Set("/data/nested/img.jpg", []byte("jpeg")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !b.Exists("/data/nested/img.jpg") {
		t.Fatal("expected file after Set")
	}
	if b.Exists("/data/nested") {
		t.Fatal("directories are not files")
	}
	data, err := b.Get("/data/nested/img.jpg")
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("unexpected Get result %q, %v", data, err)
	}
	if err := b.Set("/data/empty.bin", nil); err != nil {
		t.Fatalf("Set empty failed: %v", err)
	}
}

type countingBackend struct {
	Backend
	gets int
}

func (c *countingBackend) Get(path string) ([]byte, error) {
	c.gets++
	return c.Backend.Get(path)
}

func TestCachedBackend(t *testing.T) {
	inner := &countingBackend{Backend: NewFileBackend(afero.NewMemMapFs())}
	if err := inner.Set("/a", []byte("A")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := inner.Set("/b", []byte("B")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cached, err := NewCached(inner, 1)
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	for range 3 {
		if data, err := cached.Get("/a"); err != nil || string(data) != "A" {
			t.Fatalf("unexpected Get: %q %v", data, err)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected one read-through, got %d", inner.gets)
	}
	if _, err := cached.Get("/b"); err != nil {
		t.Fatalf("Get /b failed: %v", err)
	}
	if cached.Len() != 1 {
		t.Fatalf("expected eviction to keep one entry, got %d", cached.Len())
	}
	if _, err := cached.Get("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := NewCached(inner, 0); err == nil {
		t.Fatal("expected error for zero-sized cache")
	}
}
