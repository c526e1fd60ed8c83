package testsupport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// WriteJSON encodes v to path, creating parent directories.
func WriteJSON(t testing.TB, fsys afero.Fs, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	WriteBytes(t, fsys, path, data)
}

// WriteBytes writes raw data to path, creating parent directories.
func WriteBytes(t testing.TB, fsys afero.Fs, path string, data []byte) {
	t.Helper()

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePNG writes a width x height PNG whose left half is fill and right half
// is black, so horizontal flips are observable.
func WritePNG(t testing.TB, fsys afero.Fs, path string, width, height int, fill color.RGBA) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if x < width/2 {
				img.SetRGBA(x, y, fill)
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png %s: %v", path, err)
	}
	WriteBytes(t, fsys, path, buf.Bytes())
}
