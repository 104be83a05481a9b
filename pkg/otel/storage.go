package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StorageSpan 为一次 key-value 操作创建 client span
func StorageSpan(ctx context.Context, backend, op, key string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "storage."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", backend),
			attribute.String("db.operation.name", op),
			attribute.String("focusdesk.storage.key", key),
		),
	)
}
