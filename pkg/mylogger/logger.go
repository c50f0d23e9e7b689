package mylogger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Info(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	log(ctx, logger, zapcore.InfoLevel, msg, fields)
}

func Error(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	log(ctx, logger, zapcore.ErrorLevel, msg, fields)
}

func Warn(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	log(ctx, logger, zapcore.WarnLevel, msg, fields)
}

func Debug(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	log(ctx, logger, zapcore.DebugLevel, msg, fields)
}

// WithTrace returns fields extended by the trace and span ids of the span in ctx.
func WithTrace(ctx context.Context, fields ...zap.Field) []zap.Field {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return fields
	}

	return append(fields,
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

func log(ctx context.Context, logger *zap.Logger, level zapcore.Level, msg string, fields []zap.Field) {
	if ce := logger.WithOptions(zap.AddCallerSkip(2)).Check(level, msg); ce != nil {
		ce.Write(WithTrace(ctx, fields...)...)
	}
}
