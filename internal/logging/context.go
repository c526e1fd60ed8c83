package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. mapping_cache_hit).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldWorkerID identifies the data-loading worker that owns a dataset instance.
	FieldWorkerID = "worker_id"
	// FieldDatasetKind is the dataset class a mapping belongs to.
	FieldDatasetKind = "dataset_kind"
	// FieldMappingHash is the truncated signature hash naming a cached mapping.
	FieldMappingHash = "mapping_hash"
	// FieldSampleIndex is the dataset index a fetch was requested for.
	FieldSampleIndex = "sample_index"
)

type workerIDKey struct{}

// WithWorkerID returns a context carrying the data-loading worker identifier.
func WithWorkerID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, workerIDKey{}, id)
}

// WorkerIDFromContext extracts the worker identifier stored by WithWorkerID.
func WorkerIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(workerIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := WorkerIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldWorkerID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
