// Package logging wraps zap with context-aware helpers that attach the
// active trace and span ids to every entry, so log lines can be joined
// with traces in the backend.
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

func Init(serviceName string) error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	logger = l.With(zap.String("service", serviceName))
	return nil
}

func Sync() {
	_ = logger.Sync()
}

func withTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return fields
	}
	return append(fields,
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	logger.Info(msg, withTrace(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	logger.Warn(msg, withTrace(ctx, fields)...)
}

func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	logger.Error(msg, withTrace(ctx, fields)...)
}
