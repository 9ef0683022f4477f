package logger

import (
	"context"

	"go.uber.org/zap"

	"minutri/pkg/trace"
)

var Log *zap.Logger

// NewLogger builds the process logger. Development mode switches to the
// human-readable console encoder with debug level.
func NewLogger(development bool) *zap.Logger {
	build := zap.NewProduction
	if development {
		build = zap.NewDevelopment
	}
	l, err := build()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithTrace adds the trace_id carried by ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
