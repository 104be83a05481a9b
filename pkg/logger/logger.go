// Package logger 构建 zap logger，并把请求 trace ID 与 OTel span 关联到日志字段。
package logger

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"focusdesk/pkg/trace"
)

// NewLogger debug 级别用开发模式 console 输出，其余级别用 JSON
func NewLogger(level string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if level == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		if lvl, perr := zapcore.ParseLevel(level); perr == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		l, err = cfg.Build()
	}
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace 附加 trace_id，以及存在采样 span 时的 otel_trace_id / span_id
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 3)
	if id := trace.FromContext(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if sc := oteltrace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("otel_trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
