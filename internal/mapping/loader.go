package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vis4d/internal/datalist"
	"vis4d/internal/logging"
)

// GenerateFunc enumerates the records of a dataset. It may be slow and need
// not be deterministic.
type GenerateFunc[R any] func(ctx context.Context) ([]R, error)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Locker, when set, serializes generation of a key across processes.
	Locker Locker
	// LockTimeout bounds the wait for another generator. Zero waits until
	// the context ends.
	LockTimeout time.Duration
	// HashLength is the number of hex characters in mapping keys.
	HashLength int
	// ListOptions are passed to datalist.New for the returned container.
	ListOptions []datalist.Option
	Logger      *slog.Logger
}

// Loader resolves record lists through a Store.
type Loader[R any] struct {
	store       Store
	locker      Locker
	lockTimeout time.Duration
	hashLength  int
	listOptions []datalist.Option
	logger      *slog.Logger
	now         func() time.Time
}

// Result describes one resolved mapping.
type Result[R any] struct {
	List     *datalist.List[R]
	Key      Key
	CacheHit bool
	Elapsed  time.Duration
}

// NewLoader returns a loader backed by store.
func NewLoader[R any](store Store, opts LoaderOptions) *Loader[R] {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	hashLength := opts.HashLength
	if hashLength <= 0 {
		hashLength = DefaultHashLength
	}
	return &Loader[R]{
		store:       store,
		locker:      opts.Locker,
		lockTimeout: opts.LockTimeout,
		hashLength:  hashLength,
		listOptions: opts.ListOptions,
		logger:      logging.NewComponentLogger(logger, "mapping"),
		now:         time.Now,
	}
}

// Load returns the record list for sig, generating it when the cache cannot
// serve it.
func (l *Loader[R]) Load(ctx context.Context, sig Signature, generate GenerateFunc[R], useCache bool) (*datalist.List[R], error) {
	res, err := l.Resolve(ctx, sig, generate, useCache)
	if err != nil {
		return nil, err
	}
	return res.List, nil
}

// Resolve is Load with the cache outcome reported. With useCache false the
// store is neither read nor written.
func (l *Loader[R]) Resolve(ctx context.Context, sig Signature, generate GenerateFunc[R], useCache bool) (Result[R], error) {
	if generate == nil {
		return Result[R]{}, errors.New("mapping generator is required")
	}
	start := l.now()
	canonical, err := sig.Canonical()
	if err != nil {
		return Result[R]{}, err
	}
	key := Key{Kind: sig.Kind, Hash: hashCanonical(canonical, l.hashLength)}
	logger := logging.WithContext(ctx, l.logger).With(
		logging.String(logging.FieldDatasetKind, key.Kind),
		logging.String(logging.FieldMappingHash, key.Hash),
	)

	var (
		records []R
		hit     bool
	)
	switch {
	case !useCache || l.store == nil:
		records, err = generate(ctx)
		if err != nil {
			return Result[R]{}, fmt.Errorf("generate %s mapping: %w", key.Kind, err)
		}
	default:
		records, hit, err = l.cached(ctx, logger, key, canonical)
		if err != nil {
			return Result[R]{}, err
		}
		if !hit {
			records, hit, err = l.generateAndStore(ctx, logger, key, canonical, generate)
			if err != nil {
				return Result[R]{}, err
			}
		}
	}

	list, err := datalist.New(records, datalist.JSONCodec[R]{}, l.listOptions...)
	if err != nil {
		return Result[R]{}, fmt.Errorf("build record list: %w", err)
	}

	elapsed := l.now().Sub(start)
	logger.Info("dataset mapping ready",
		logging.String(logging.FieldEventType, "mapping_ready"),
		logging.Int("records", list.Len()),
		logging.Bool("cache_hit", hit),
		logging.Bool("cache_enabled", useCache),
		logging.Int("payload_bytes", list.Size()),
		logging.Duration("elapsed", elapsed),
	)
	return Result[R]{List: list, Key: key, CacheHit: hit, Elapsed: elapsed}, nil
}

func (l *Loader[R]) cached(ctx context.Context, logger *slog.Logger, key Key, canonical string) ([]R, bool, error) {
	payload, ok, err := l.store.Lookup(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	records, err := decodeEnvelope[R](payload, canonical)
	if errors.Is(err, errStaleMapping) {
		logger.Debug("ignoring stale mapping entry", logging.Error(err))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load mapping %s: %w", key, err)
	}
	return records, true, nil
}

func (l *Loader[R]) generateAndStore(ctx context.Context, logger *slog.Logger, key Key, canonical string, generate GenerateFunc[R]) ([]R, bool, error) {
	if l.locker != nil {
		lockCtx := ctx
		if l.lockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, l.lockTimeout)
			defer cancel()
		}
		unlock, err := l.locker.Lock(lockCtx, key)
		if err != nil {
			return nil, false, err
		}
		defer func() {
			if unlockErr := unlock(); unlockErr != nil {
				logging.WarnWithContext(logger, "failed to release mapping lock", "mapping_unlock_failed",
					logging.Error(unlockErr),
					logging.String(logging.FieldErrorHint, "remove the stale .lock file if no loader is running"),
					logging.String(logging.FieldImpact, "other workers may wait for the lock timeout"))
			}
		}()

		// Another worker may have finished while we waited.
		records, hit, err := l.cached(ctx, logger, key, canonical)
		if err != nil || hit {
			return records, hit, err
		}
	}

	logger.Info("generating dataset mapping",
		logging.String(logging.FieldEventType, "mapping_generate"))
	records, err := generate(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("generate %s mapping: %w", key.Kind, err)
	}
	payload, err := encodeEnvelope(canonical, records)
	if err != nil {
		return nil, false, err
	}
	if err := l.store.Store(ctx, key, payload); err != nil {
		logging.ErrorWithContext(logger, "failed to store dataset mapping", "mapping_store_failed",
			logging.Error(err),
			logging.Int("payload_bytes", len(payload)),
			logging.String(logging.FieldErrorHint, "check free space and permissions under the cache root"))
		return nil, false, fmt.Errorf("store mapping %s: %w", key, err)
	}
	return records, false, nil
}
