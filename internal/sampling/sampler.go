package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrNotEnoughCandidates is returned when a video is too short to provide the
// requested number of references.
var ErrNotEnoughCandidates = errors.New("not enough reference candidates")

// Sampler draws reference positions from a VideoIndex. It is not safe for
// concurrent use because it owns its random source.
type Sampler struct {
	cfg   Config
	index *VideoIndex
	rng   *rand.Rand
}

// NewSampler validates cfg and returns a sampler over index. A nil rng uses
// a randomly seeded source.
func NewSampler(cfg Config, index *VideoIndex, rng *rand.Rand) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if index == nil {
		return nil, errors.New("video index is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{cfg: cfg, index: index, rng: rng}, nil
}

// Config returns the sampler configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Index returns the video index the sampler draws from.
func (s *Sampler) Index() *VideoIndex {
	return s.index
}

// SampleReferences returns the reference positions for key within video.
// The key position itself is never returned.
func (s *Sampler) SampleReferences(video string, key int) ([]int, error) {
	positions, k, err := s.index.locate(video, key)
	if err != nil {
		return nil, err
	}
	switch s.cfg.Strategy {
	case Uniform:
		return s.uniform(positions, k)
	case Sequential:
		return sequential(positions, k, s.cfg.NumRefImgs)
	default:
		return nil, fmt.Errorf("unsupported reference sampling type %s", s.cfg.Strategy)
	}
}

func (s *Sampler) uniform(positions []int, k int) ([]int, error) {
	left := max(0, k-s.cfg.Scope)
	right := min(k+s.cfg.Scope, len(positions)-1)
	window := make([]int, 0, right-left)
	window = append(window, positions[left:k]...)
	window = append(window, positions[k+1:right+1]...)

	n := s.cfg.NumRefImgs
	if n > len(window) {
		return nil, fmt.Errorf("%w: want %d, window has %d", ErrNotEnoughCandidates, n, len(window))
	}
	// Partial Fisher-Yates: the first n slots end up a uniform draw without replacement.
	for i := range n {
		j := i + s.rng.IntN(len(window)-i)
		window[i], window[j] = window[j], window[i]
	}
	return window[:n:n], nil
}

func sequential(positions []int, k, n int) ([]int, error) {
	if n > len(positions)-1 {
		return nil, fmt.Errorf("%w: want %d, video has %d other frames", ErrNotEnoughCandidates, n, len(positions)-1)
	}
	right := k + 1 + n
	if right <= len(positions) {
		return append([]int(nil), positions[k+1:right]...), nil
	}
	left := k - (right - len(positions))
	out := make([]int, 0, n)
	out = append(out, positions[left:k]...)
	out = append(out, positions[k+1:]...)
	return out, nil
}
