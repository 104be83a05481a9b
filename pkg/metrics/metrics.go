package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 存储操作延迟（秒）
	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_op_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"backend", "op"},
	)

	// 存储失败计数（读回退到默认值 / 写被丢弃）
	StorageErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_error_count",
			Help: "Total number of failed key-value store operations",
		},
		[]string{"op", "reason"}, // reason: backend, decode, encode, breaker_open
	)

	// 远程后端熔断状态：0 closed, 1 open, 2 half_open
	StorageBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storage_breaker_state",
			Help: "Circuit breaker state of the remote storage backend",
		},
		[]string{"backend"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of SQL statements slower than the configured threshold",
		},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// habit 打卡切换计数
	HabitToggleCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_toggle_count",
			Help: "Total number of habit completion toggles",
		},
		[]string{"state"}, // state: marked, unmarked
	)

	PomodoroCompletedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pomodoro_completed_count",
			Help: "Total number of finished work sessions",
		},
	)

	TaskCompletedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_completed_count",
			Help: "Total number of tasks marked completed",
		},
	)

	// 跨日刷新导致的 streak 变化
	StreakResetCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habit_streak_refresh_changes_count",
			Help: "Total number of cached streaks changed by the periodic refresher",
		},
	)
)

// RecordStorageOp 记录存储操作延迟
func RecordStorageOp(backend, op string, duration time.Duration) {
	StorageOpDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// IncrementStorageError 增加存储失败计数
func IncrementStorageError(op, reason string) {
	StorageErrorCount.WithLabelValues(op, reason).Inc()
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementHabitToggle 增加打卡计数
func IncrementHabitToggle(marked bool) {
	state := "unmarked"
	if marked {
		state = "marked"
	}
	HabitToggleCount.WithLabelValues(state).Inc()
}

func IncrementPomodoroCompleted() {
	PomodoroCompletedCount.Inc()
}

func IncrementTaskCompleted() {
	TaskCompletedCount.Inc()
}

func AddStreakRefreshChanges(n int) {
	StreakResetCount.Add(float64(n))
}

// SetBreakerState 记录熔断器当前状态
func SetBreakerState(backend string, state int) {
	StorageBreakerState.WithLabelValues(backend).Set(float64(state))
}
