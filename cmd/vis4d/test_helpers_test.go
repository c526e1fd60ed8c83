package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"vis4d/internal/dataset"
	"vis4d/internal/testsupport"
)

type cliTestEnv struct {
	dir         string
	cacheDir    string
	dataRoot    string
	configPath  string
	annotations string
}

type cliEnvOption func(*cliEnvSettings)

type cliEnvSettings struct {
	store      string
	sampling   string
	numRefImgs int
	frameOrder string
}

func withStore(store string) cliEnvOption {
	return func(s *cliEnvSettings) { s.store = store }
}

func withRefs(kind string, num int, order string) cliEnvOption {
	return func(s *cliEnvSettings) {
		s.sampling = kind
		s.numRefImgs = num
		s.frameOrder = order
	}
}

// setupCLITestEnv writes a config, three frames of video v1 plus one still
// image, and the matching annotation file.
func setupCLITestEnv(t *testing.T, opts ...cliEnvOption) cliTestEnv {
	t.Helper()

	settings := cliEnvSettings{store: "file", sampling: "sequential", frameOrder: "key_first"}
	for _, opt := range opts {
		opt(&settings)
	}

	dir := t.TempDir()
	env := cliTestEnv{
		dir:         dir,
		cacheDir:    filepath.Join(dir, "cache"),
		dataRoot:    filepath.Join(dir, "data"),
		configPath:  filepath.Join(dir, "vis4d.toml"),
		annotations: filepath.Join(dir, "labels.json"),
	}

	fsys := afero.NewOsFs()
	frames := make([]dataset.Frame, 0, 4)
	for i := range 3 {
		name := fmt.Sprintf("v1-%d.png", i)
		testsupport.WritePNG(t, fsys, filepath.Join(env.dataRoot, name), 8, 4, color.RGBA{R: uint8(50 * (i + 1)), A: 255})
		index := i
		frames = append(frames, dataset.Frame{
			Name:       name,
			VideoName:  "v1",
			FrameIndex: &index,
			Labels: []dataset.Label{{
				ID:       fmt.Sprintf("car-%d", i),
				Category: "car",
				Box2D:    &dataset.Box2D{X1: 0, Y1: 0, X2: 2, Y2: 2},
			}},
		})
	}
	testsupport.WritePNG(t, fsys, filepath.Join(env.dataRoot, "still.png"), 8, 4, color.RGBA{G: 200, A: 255})
	frames = append(frames, dataset.Frame{Name: "still.png"})
	testsupport.WriteJSON(t, fsys, env.annotations, frames)

	cfg := fmt.Sprintf(`[paths]
cache_dir = %q
data_root = %q

[mapping]
store = %q

[sampling]
type = %q
scope = 1
num_ref_imgs = %d
frame_order = %q

[loader]
training = true
seed = 7

[augment]
flip_prob = 0.0

[logging]
level = "error"
`, env.cacheDir, env.dataRoot, settings.store, settings.sampling, settings.numRefImgs, settings.frameOrder)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, out)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}
