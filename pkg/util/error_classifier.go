package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"focusdesk/pkg/circuitbreaker"
)

// ClassifyError labels a persistence error for metrics and logs.
// Returns: (isRetryable, errorType)
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// 熔断器打开 - 稍后可重试
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return true, "breaker_open"
	}

	// JSON 编解码错误 - 不可重试（数据格式错误）
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var unsupported *json.UnsupportedValueError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &unsupported) {
		return false, "json_error"
	}

	// Context
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// Redis 连接池耗尽或服务端关闭
	if errors.Is(err, redis.ErrClosed) {
		return false, "redis_closed"
	}

	// Postgres 服务端错误：08xxx 连接类可重试，其余不可重试
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true, "db_connection_error"
		}
		return false, "db_error"
	}

	// Network errors - 可重试
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "SQLITE_BUSY") {
		return true, "sqlite_busy"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "broken pipe") {
		return true, "network_error"
	}

	// 默认：未知错误
	return false, "backend_error"
}
