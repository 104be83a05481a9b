package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"focusdesk/pkg/metrics"
	"focusdesk/pkg/otel"
)

const maxLoggedSQL = 200

type queryKey struct{}

type queryState struct {
	start time.Time
	sql   string
	span  trace.Span
}

// QueryTracer 实现 pgx.QueryTracer：每条语句一个 span，超过阈值记慢查询
type QueryTracer struct {
	logger    *zap.Logger
	threshold time.Duration
}

func NewQueryTracer(logger *zap.Logger, threshold time.Duration) *QueryTracer {
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	return &QueryTracer{logger: logger, threshold: threshold}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.StartSpan(ctx, "postgres.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.query.text", truncate(data.SQL)),
		),
	)
	return context.WithValue(ctx, queryKey{}, queryState{start: time.Now(), sql: data.SQL, span: span})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	q, ok := ctx.Value(queryKey{}).(queryState)
	if !ok {
		return
	}
	otel.End(q.span, data.Err)

	took := time.Since(q.start)
	if took <= t.threshold {
		return
	}
	t.logger.Warn("slow-query",
		zap.String("sql", truncate(q.sql)),
		zap.Duration("took", took),
		zap.String("command_tag", data.CommandTag.String()),
	)
	metrics.IncrementSlowQuery()
}

func truncate(sql string) string {
	if len(sql) > maxLoggedSQL {
		return sql[:maxLoggedSQL] + "..."
	}
	return sql
}
