package services

import "context"

type contextKey string

const (
	jobIDKey   contextKey = "job_id"
	stageKey   contextKey = "stage"
	segmentKey contextKey = "segment"
)

// WithJobID annotates context with the job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSegmentID annotates context with the segment being processed.
func WithSegmentID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, segmentKey, id)
}

// SegmentIDFromContext extracts the segment identifier if present.
func SegmentIDFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(segmentKey).(int); ok {
		return v, true
	}
	return 0, false
}
