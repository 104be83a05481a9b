package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"focusdesk/pkg/trace"
)

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := trace.WithContext(context.Background(), "req-1")
	sc := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID:    oteltrace.TraceID{1},
		SpanID:     oteltrace.SpanID{2},
		TraceFlags: oteltrace.FlagsSampled,
	})
	ctx = oteltrace.ContextWithSpanContext(ctx, sc)

	WithTrace(ctx, base).Info("hello")
	WithTrace(context.Background(), base).Info("bare")

	all := logs.All()
	assert.Equal(t, "req-1", all[0].ContextMap()["trace_id"])
	assert.Equal(t, sc.TraceID().String(), all[0].ContextMap()["otel_trace_id"])
	assert.Empty(t, all[1].ContextMap())
}

func TestNewLogger_Levels(t *testing.T) {
	assert.True(t, NewLogger("debug").Core().Enabled(zap.DebugLevel))
	l := NewLogger("warn")
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}
