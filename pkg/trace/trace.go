// Package trace 在 context 中携带请求级 trace ID（X-Trace-ID），供日志和事件使用。
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type contextKey struct{}

const (
	HeaderName = "X-Trace-ID"
	maxLength  = 64
)

// GenerateTraceID 生成 32 位十六进制 ID
func GenerateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// FromHeader 沿用客户端传来的 ID；缺失或不合法（过长、含非 [A-Za-z0-9_-] 字符）时生成新的
func FromHeader(headerValue string) string {
	if valid(headerValue) {
		return headerValue
	}
	return GenerateTraceID()
}

func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
