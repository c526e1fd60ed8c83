package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"vis4d/internal/logging"
	"vis4d/internal/sampling"
)

var (
	// ErrRetriesExhausted is returned when MaxRetries consecutive attempts failed.
	ErrRetriesExhausted = errors.New("sample retries exhausted")
	// ErrNoCandidates is returned when every fallback candidate has failed.
	ErrNoCandidates = errors.New("no fallback candidates left")
)

// DefaultRetryWarnAfter is the number of consecutive failures after which
// every further retry is logged.
const DefaultRetryWarnAfter = 5

// Source provides records by dataset position. *datalist.List satisfies it.
type Source[R any] interface {
	Len() int
	Get(i int) (R, error)
}

// Sample is a prepared sample that knows its frame index and can be flagged
// as the key frame of a clip.
type Sample interface {
	FrameIndex() (int, bool)
	SetKeyframe(bool)
}

// TransformFunc prepares a record. A nil params asks the transform to choose
// fresh geometric parameters; the chosen parameters are returned so reference
// frames can reuse them. An error marks the record as unusable for now.
type TransformFunc[R any, S Sample, P any] func(rec R, params *P) (S, *P, error)

// Options configures a Dataset.
type Options[R any] struct {
	Training bool
	Sampling sampling.Config
	// VideoOf reports the video a record belongs to. It is required when
	// reference frames are sampled.
	VideoOf func(R) (string, bool)
	// RetryWarnAfter defaults to DefaultRetryWarnAfter.
	RetryWarnAfter int
	// MaxRetries caps consecutive failures of one fetch. Zero keeps retrying
	// while any candidate remains.
	MaxRetries int
	// Seed drives reference sampling and fallback choice. Zero seeds from
	// the clock.
	Seed     uint64
	WorkerID string
	Logger   *slog.Logger
}

// Dataset serves clips by index with retry-with-resample on failures.
type Dataset[R any, S Sample, P any] struct {
	source     Source[R]
	transform  TransformFunc[R, S, P]
	training   bool
	sampling   sampling.Config
	sampler    *sampling.Sampler
	candidates *candidateSet
	rng        *rand.Rand
	warnAfter  int
	maxRetries int
	logger     *slog.Logger
}

// New builds a Dataset over source. When training with NumRefImgs > 0 it
// scans every record once to build the video index.
func New[R any, S Sample, P any](source Source[R], transform TransformFunc[R, S, P], opts Options[R]) (*Dataset[R, S, P], error) {
	if source == nil {
		return nil, errors.New("record source is required")
	}
	if transform == nil {
		return nil, errors.New("transform is required")
	}
	if err := opts.Sampling.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be non-negative, got %d", opts.MaxRetries)
	}
	warnAfter := opts.RetryWarnAfter
	if warnAfter <= 0 {
		warnAfter = DefaultRetryWarnAfter
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	workerID := opts.WorkerID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	logger := logging.NewComponentLogger(opts.Logger, "fetch").
		With(logging.String(logging.FieldWorkerID, workerID))

	d := &Dataset[R, S, P]{
		source:     source,
		transform:  transform,
		training:   opts.Training,
		sampling:   opts.Sampling,
		candidates: newCandidateSet(source.Len()),
		rng:        rng,
		warnAfter:  warnAfter,
		maxRetries: opts.MaxRetries,
		logger:     logger,
	}

	if d.samplesReferences() {
		if opts.VideoOf == nil {
			return nil, errors.New("reference sampling needs a video lookup")
		}
		index, err := buildIndex(source, opts.VideoOf)
		if err != nil {
			return nil, err
		}
		if d.sampler, err = sampling.NewSampler(opts.Sampling, index, rng); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildIndex[R any](source Source[R], videoOf func(R) (string, bool)) (*sampling.VideoIndex, error) {
	var readErr error
	index, err := sampling.BuildVideoIndex(source.Len(), func(i int) (string, bool) {
		if readErr != nil {
			return "", false
		}
		rec, err := source.Get(i)
		if err != nil {
			readErr = fmt.Errorf("index record %d: %w", i, err)
			return "", false
		}
		return videoOf(rec)
	})
	if readErr != nil {
		return nil, readErr
	}
	return index, err
}

func (d *Dataset[R, S, P]) samplesReferences() bool {
	return d.training && d.sampling.NumRefImgs > 0
}

// Len reports the number of records.
func (d *Dataset[R, S, P]) Len() int {
	return d.source.Len()
}

// Candidates returns the current fallback candidates in ascending order.
func (d *Dataset[R, S, P]) Candidates() []int {
	out := slices.Clone(d.candidates.items)
	slices.Sort(out)
	return out
}

// VideoIndex returns the index used for reference sampling, or nil when
// references are not sampled.
func (d *Dataset[R, S, P]) VideoIndex() *sampling.VideoIndex {
	if d.sampler == nil {
		return nil
	}
	return d.sampler.Index()
}

// attemptError is a recoverable failure of the record at idx.
type attemptError struct {
	idx int
	err error
}

func (e *attemptError) Error() string {
	return fmt.Sprintf("record %d: %v", e.idx, e.err)
}

func (e *attemptError) Unwrap() error {
	return e.err
}

// Get returns the clip for idx. The key sample comes first unless the frame
// order is temporal. When the record at idx cannot be prepared another
// candidate is served instead.
func (d *Dataset[R, S, P]) Get(ctx context.Context, idx int) ([]S, error) {
	if idx < 0 || idx >= d.source.Len() {
		return nil, fmt.Errorf("sample index %d out of range [0, %d)", idx, d.source.Len())
	}

	cur := idx
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clip, err := d.attempt(cur)
		if err == nil {
			return clip, nil
		}
		var failed *attemptError
		if !errors.As(err, &failed) {
			return nil, err
		}

		failures++
		d.candidates.Remove(failed.idx)
		if d.maxRetries > 0 && failures >= d.maxRetries {
			return nil, fmt.Errorf("%w: index %d failed %d times, last: %v", ErrRetriesExhausted, idx, failures, failed)
		}
		next, ok := d.candidates.Choose(d.rng)
		if !ok {
			return nil, fmt.Errorf("%w: index %d, last: %v", ErrNoCandidates, idx, failed)
		}
		if failures >= d.warnAfter {
			logging.WarnWithContext(d.logger, "sample transform keeps failing", "fetch_retry",
				logging.Int(logging.FieldSampleIndex, idx),
				logging.Int("failed_index", failed.idx),
				logging.Int("retry_count", failures),
				logging.Int("candidates", d.candidates.Len()),
				logging.Error(failed.err),
				logging.String(logging.FieldErrorHint, "check the files referenced by the failing records"),
				logging.String(logging.FieldImpact, "another sample is served in place of the requested index"),
			)
		} else {
			d.logger.Debug("sample transform failed, resampling",
				logging.Int(logging.FieldSampleIndex, idx),
				logging.Int("failed_index", failed.idx),
				logging.Int("next_index", next),
				logging.Error(failed.err))
		}
		cur = next
	}
}

func (d *Dataset[R, S, P]) attempt(cur int) ([]S, error) {
	rec, err := d.source.Get(cur)
	if err != nil {
		return nil, fmt.Errorf("read record %d: %w", cur, err)
	}
	key, params, err := d.transform(rec, nil)
	if err != nil {
		return nil, &attemptError{idx: cur, err: err}
	}
	key.SetKeyframe(true)
	d.candidates.Add(cur)

	if !d.samplesReferences() {
		return []S{key}, nil
	}

	video, ok := d.sampler.Index().VideoOf(cur)
	if !ok {
		clip := make([]S, 0, 1+d.sampling.NumRefImgs)
		clip = append(clip, key)
		for range d.sampling.NumRefImgs {
			clip = append(clip, key)
		}
		return clip, nil
	}

	refs, err := d.sampler.SampleReferences(video, cur)
	if err != nil {
		return nil, fmt.Errorf("sample references for %d: %w", cur, err)
	}
	clip := make([]S, 0, 1+len(refs))
	clip = append(clip, key)
	for _, refIdx := range refs {
		refRec, err := d.source.Get(refIdx)
		if err != nil {
			return nil, fmt.Errorf("read reference record %d: %w", refIdx, err)
		}
		ref, _, err := d.transform(refRec, params)
		if err != nil {
			return nil, &attemptError{idx: refIdx, err: err}
		}
		ref.SetKeyframe(false)
		clip = append(clip, ref)
	}
	return sampling.SortSamples(d.sampling.FrameOrder, clip, func(s S) (int, bool) {
		return s.FrameIndex()
	})
}
