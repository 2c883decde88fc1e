package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	videoIDKey contextKey = "video_id"
	stageKey   contextKey = "stage"
)

// WithVideoID stores a video identifier in the context for log enrichment.
func WithVideoID(ctx context.Context, videoID string) context.Context {
	if videoID == "" {
		return ctx
	}
	return context.WithValue(ctx, videoIDKey, videoID)
}

// WithStage stores a pipeline stage name in the context for log enrichment.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// VideoIDFromContext extracts a video identifier previously stored with WithVideoID.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(videoIDKey).(string)
	return id, ok && id != ""
}

// StageFromContext extracts a stage name previously stored with WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok && stage != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := VideoIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVideoID, id))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
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
