package otel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"focusdesk/pkg/config"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return rec
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.OTelConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStorageSpan_RecordsError(t *testing.T) {
	rec := installRecorder(t)

	_, span := StorageSpan(context.Background(), "sqlite", "get", "tasks")
	End(span, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "storage.get", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInjectHeaders(t *testing.T) {
	installRecorder(t)

	ctx, span := MQPublishSpan(context.Background(), "events", "task.created")
	defer span.End()

	headers := InjectHeaders(ctx, nil)
	assert.NotEmpty(t, headers["traceparent"])

	carrier := NewMQHeaderCarrier(headers)
	extracted := otel.GetTextMapPropagator().Extract(context.Background(), carrier)
	assert.Equal(t, span.SpanContext().TraceID(), traceIDOf(extracted))
}

func TestGinMiddleware_NamesSpanByRoute(t *testing.T) {
	rec := installRecorder(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/habits/:id/week", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/habits/abc/week", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /habits/:id/week", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func traceIDOf(ctx context.Context) trace.TraceID {
	return trace.SpanContextFromContext(ctx).TraceID()
}
