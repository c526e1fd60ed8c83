package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"vis4d/internal/datalist"
	"vis4d/internal/mapping"
)

// scalabelVersion is bumped whenever Generate changes the records it emits
// for the same input, which invalidates every cached Scalabel mapping.
const scalabelVersion = 1

// Scalabel enumerates frames from a Scalabel annotation file.
type Scalabel struct {
	Fs afero.Fs
	// DataRoot resolves relative frame URLs.
	DataRoot    string
	Annotations string
	// Categories keeps only labels of these categories. Empty keeps all.
	Categories []string
	// SkipEmpty drops frames left without labels.
	SkipEmpty bool
}

func (s *Scalabel) fs() afero.Fs {
	if s.Fs == nil {
		return afero.NewOsFs()
	}
	return s.Fs
}

// Kind names the dataset class in mapping keys.
func (s *Scalabel) Kind() string {
	return "Scalabel"
}

// Signature describes every input that shapes the generated frames. The
// annotation file's size and modification time stand in for its contents.
func (s *Scalabel) Signature() (mapping.Signature, error) {
	if strings.TrimSpace(s.Annotations) == "" {
		return mapping.Signature{}, errors.New("scalabel annotations path is required")
	}
	info, err := s.fs().Stat(s.Annotations)
	if err != nil {
		return mapping.Signature{}, fmt.Errorf("stat annotations: %w", err)
	}
	categories := slices.Clone(s.Categories)
	slices.Sort(categories)
	return mapping.Signature{
		Kind:    s.Kind(),
		Version: scalabelVersion,
		Fields: map[string]any{
			"annotations": filepath.Clean(s.Annotations),
			"size_bytes":  info.Size(),
			"mod_time":    info.ModTime().UTC().Format(time.RFC3339Nano),
			"data_root":   filepath.Clean(s.DataRoot),
			"categories":  categories,
			"skip_empty":  s.SkipEmpty,
		},
	}, nil
}

type frameFile struct {
	Frames []Frame `json:"frames"`
}

// Generate parses the annotation file. It accepts a bare JSON array of frames
// or an object with a "frames" array.
func (s *Scalabel) Generate(ctx context.Context) ([]Frame, error) {
	data, err := afero.ReadFile(s.fs(), s.Annotations)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}

	var frames []Frame
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("annotations %s are empty", s.Annotations)
	case trimmed[0] == '[':
		err = json.Unmarshal(trimmed, &frames)
	default:
		var file frameFile
		err = json.Unmarshal(trimmed, &file)
		frames = file.Frames
	}
	if err != nil {
		return nil, fmt.Errorf("decode annotations %s: %w", s.Annotations, err)
	}

	keep := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		keep[c] = true
	}

	out := make([]Frame, 0, len(frames))
	for i, frame := range frames {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if frame.Name == "" && frame.URL == "" {
			return nil, fmt.Errorf("frame %d has neither name nor url", i)
		}
		if len(keep) > 0 {
			frame.Labels = slices.DeleteFunc(frame.Labels, func(l Label) bool {
				return !keep[l.Category]
			})
		}
		if s.SkipEmpty && len(frame.Labels) == 0 {
			continue
		}
		frame.URL = s.resolveURL(frame)
		out = append(out, frame)
	}
	return out, nil
}

func (s *Scalabel) resolveURL(frame Frame) string {
	url := frame.URL
	if url == "" {
		url = frame.Name
	}
	if strings.Contains(url, "://") || filepath.IsAbs(url) || s.DataRoot == "" {
		return url
	}
	return filepath.Join(s.DataRoot, url)
}

// Resolve loads the frame list through loader.
func (s *Scalabel) Resolve(ctx context.Context, loader *mapping.Loader[Frame], useCache bool) (mapping.Result[Frame], error) {
	sig, err := s.Signature()
	if err != nil {
		return mapping.Result[Frame]{}, err
	}
	return loader.Resolve(ctx, sig, s.Generate, useCache)
}

// Load is Resolve without the cache outcome.
func (s *Scalabel) Load(ctx context.Context, loader *mapping.Loader[Frame], useCache bool) (*datalist.List[Frame], error) {
	res, err := s.Resolve(ctx, loader, useCache)
	if err != nil {
		return nil, err
	}
	return res.List, nil
}
