package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "(file store)")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init without --overwrite to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample config: %v", err)
	}
	var payload struct {
		Valid  bool   `json:"valid"`
		Exists bool   `json:"exists"`
		Store  string `json:"store"`
	}
	decodeJSON(t, out, &payload)
	if !payload.Valid || !payload.Exists || payload.Store != "file" {
		t.Fatalf("unexpected validate payload: %+v", payload)
	}
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[mapping]\nstore = \"redis\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil || !strings.Contains(err.Error(), "mapping.store") {
		t.Fatalf("expected mapping.store error, got %v", err)
	}
}

type buildPayload struct {
	Kind     string `json:"kind"`
	Hash     string `json:"hash"`
	Records  int    `json:"records"`
	CacheHit bool   `json:"cache_hit"`
}

func TestMappingBuildReusesCache(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			env := setupCLITestEnv(t, withStore(store))

			out, _, err := runCLI(t, []string{"mapping", "build", "-a", env.annotations}, env.configPath)
			if err != nil {
				t.Fatalf("first build: %v", err)
			}
			requireContains(t, out, "Records: 4")
			requireContains(t, out, "Status: generated")

			out, _, err = runCLI(t, []string{"mapping", "build", "-a", env.annotations}, env.configPath)
			if err != nil {
				t.Fatalf("second build: %v", err)
			}
			requireContains(t, out, "Status: cache hit")

			out, _, err = runCLI(t, []string{"--json", "mapping", "build", "-a", env.annotations, "--no-cache"}, env.configPath)
			if err != nil {
				t.Fatalf("no-cache build: %v", err)
			}
			var payload buildPayload
			decodeJSON(t, out, &payload)
			if payload.CacheHit || payload.Records != 4 || payload.Kind != "Scalabel" {
				t.Fatalf("unexpected no-cache payload: %+v", payload)
			}
		})
	}
}

func TestMappingBuildFilters(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "mapping", "build", "-a", env.annotations, "--skip-empty"}, env.configPath)
	if err != nil {
		t.Fatalf("build --skip-empty: %v", err)
	}
	var payload buildPayload
	decodeJSON(t, out, &payload)
	if payload.Records != 3 {
		t.Fatalf("expected the unlabeled still frame to be skipped, got %d records", payload.Records)
	}

	out, _, err = runCLI(t, []string{"--json", "mapping", "build", "-a", env.annotations, "--skip-empty", "--category", "person"}, env.configPath)
	if err != nil {
		t.Fatalf("build --category: %v", err)
	}
	decodeJSON(t, out, &payload)
	if payload.Records != 0 {
		t.Fatalf("expected no frames with person labels, got %d", payload.Records)
	}
}

func TestMappingBuildRequiresAnnotations(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"mapping", "build"}, env.configPath); err == nil {
		t.Fatal("expected missing --annotations to fail")
	}
	missing := filepath.Join(env.dir, "missing.json")
	if _, _, err := runCLI(t, []string{"mapping", "build", "-a", missing}, env.configPath); err == nil {
		t.Fatal("expected a missing annotation file to fail")
	}
}

func TestMappingListRemoveAndClear(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"mapping", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	requireContains(t, out, "Mappings: none")

	out, _, err = runCLI(t, []string{"--json", "mapping", "build", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var built buildPayload
	decodeJSON(t, out, &built)
	key := built.Kind + "/" + built.Hash

	out, _, err = runCLI(t, []string{"mapping", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Mappings: 1")
	requireContains(t, out, built.Hash)

	out, _, err = runCLI(t, []string{"--json", "mapping", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var listed struct {
		Store   string `json:"store"`
		Entries []struct {
			Key struct {
				Kind string `json:"kind"`
				Hash string `json:"hash"`
			} `json:"key"`
			Size int64 `json:"size_bytes"`
		} `json:"entries"`
	}
	decodeJSON(t, out, &listed)
	if len(listed.Entries) != 1 || listed.Entries[0].Key.Hash != built.Hash || listed.Entries[0].Size <= 0 {
		t.Fatalf("unexpected list payload: %+v", listed)
	}

	out, _, err = runCLI(t, []string{"mapping", "remove", key}, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed mapping "+key)

	if _, _, err := runCLI(t, []string{"mapping", "remove", key}, env.configPath); err == nil {
		t.Fatal("expected removing an uncached mapping to fail")
	}
	if _, _, err := runCLI(t, []string{"mapping", "remove", "no-slash"}, env.configPath); err == nil {
		t.Fatal("expected a malformed key to fail")
	}

	if _, _, err := runCLI(t, []string{"mapping", "build", "-a", env.annotations}, env.configPath); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	out, _, err = runCLI(t, []string{"mapping", "clear", "--kind", "Other"}, env.configPath)
	if err != nil {
		t.Fatalf("clear other kind: %v", err)
	}
	requireContains(t, out, "already empty")

	out, _, err = runCLI(t, []string{"mapping", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached mappings")
}

func TestMappingStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "mapping", "stats", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var payload struct {
		Stats struct {
			Records    int     `json:"records"`
			Videos     int     `json:"videos"`
			Unassigned int     `json:"unassigned"`
			MeanFrames float64 `json:"mean_frames"`
			MaxFrames  int     `json:"max_frames"`
		} `json:"stats"`
	}
	decodeJSON(t, out, &payload)
	s := payload.Stats
	if s.Records != 4 || s.Videos != 1 || s.Unassigned != 1 || s.MeanFrames != 3 || s.MaxFrames != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}

	out, _, err = runCLI(t, []string{"mapping", "stats", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("stats table: %v", err)
	}
	requireContains(t, out, "Frames without video")
}

type samplePayload struct {
	Index   int `json:"index"`
	Samples []struct {
		Frame struct {
			Name      string `json:"name"`
			VideoName string `json:"videoName"`
		} `json:"frame"`
		Image struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image"`
		Boxes    []any `json:"boxes"`
		Keyframe bool  `json:"keyframe"`
	} `json:"samples"`
}

func TestSampleSequentialReferences(t *testing.T) {
	env := setupCLITestEnv(t, withRefs("sequential", 1, "key_first"))

	out, _, err := runCLI(t, []string{"--json", "sample", "0", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var payload samplePayload
	decodeJSON(t, out, &payload)
	if len(payload.Samples) != 2 {
		t.Fatalf("expected key plus one reference, got %d samples", len(payload.Samples))
	}
	key, ref := payload.Samples[0], payload.Samples[1]
	if key.Frame.Name != "v1-0.png" || !key.Keyframe {
		t.Fatalf("unexpected key sample: %+v", key)
	}
	if ref.Frame.Name != "v1-1.png" || ref.Keyframe {
		t.Fatalf("unexpected reference sample: %+v", ref)
	}
	if key.Image.Width != 8 || key.Image.Height != 4 || len(key.Boxes) != 1 {
		t.Fatalf("unexpected key tensor or boxes: %+v", key)
	}

	// The last frame of the video wraps back to the one before it.
	out, _, err = runCLI(t, []string{"--json", "sample", "2", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("sample last frame: %v", err)
	}
	decodeJSON(t, out, &payload)
	if len(payload.Samples) != 2 || payload.Samples[1].Frame.Name != "v1-1.png" {
		t.Fatalf("unexpected clip for last frame: %+v", payload.Samples)
	}
}

func TestSampleTemporalOrderAndStills(t *testing.T) {
	env := setupCLITestEnv(t, withRefs("sequential", 1, "temporal"))

	out, _, err := runCLI(t, []string{"--json", "sample", "2", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var payload samplePayload
	decodeJSON(t, out, &payload)
	if len(payload.Samples) != 2 || payload.Samples[0].Frame.Name != "v1-1.png" || !payload.Samples[1].Keyframe {
		t.Fatalf("expected temporal order with key frame last: %+v", payload.Samples)
	}

	out, _, err = runCLI(t, []string{"--json", "sample", "3", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("sample still: %v", err)
	}
	decodeJSON(t, out, &payload)
	if len(payload.Samples) != 2 {
		t.Fatalf("expected the still frame to be repeated, got %d samples", len(payload.Samples))
	}
	for _, s := range payload.Samples {
		if s.Frame.Name != "still.png" {
			t.Fatalf("unexpected sample for still frame: %+v", s)
		}
	}
}

func TestSampleTableAndErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sample", "1", "-a", env.annotations}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	requireContains(t, out, "Clip for index 1: 1 frames")
	requireContains(t, out, "v1-1.png")

	if _, _, err := runCLI(t, []string{"sample", "9", "-a", env.annotations}, env.configPath); err == nil {
		t.Fatal("expected an out of range index to fail")
	}
	if _, _, err := runCLI(t, []string{"sample", "abc", "-a", env.annotations}, env.configPath); err == nil {
		t.Fatal("expected a non-numeric index to fail")
	}
}
