package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. scan_stored).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID correlates every line emitted by one CLI invocation.
	FieldRunID = "run_id"
	// FieldScanHash is the content hash of the scan being processed.
	FieldScanHash = "scan_hash"
	// FieldScanPath is the current location of the scan being processed.
	FieldScanPath = "scan_path"
)

type contextKey int

const (
	runIDKey contextKey = iota
	scanHashKey
	scanPathKey
)

// NewRunID returns a fresh correlation identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID stores a run identifier on ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier stored on ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithScan tags ctx with the scan currently being processed. Either value may
// be empty; the hash is unknown until hashing completes.
func WithScan(ctx context.Context, path, hash string) context.Context {
	if path != "" {
		ctx = context.WithValue(ctx, scanPathKey, path)
	}
	if hash != "" {
		ctx = context.WithValue(ctx, scanHashKey, hash)
	}
	return ctx
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if hash, ok := ctx.Value(scanHashKey).(string); ok && hash != "" {
		fields = append(fields, slog.String(FieldScanHash, hash))
	}
	if path, ok := ctx.Value(scanPathKey).(string); ok && path != "" {
		fields = append(fields, slog.String(FieldScanPath, path))
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
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
