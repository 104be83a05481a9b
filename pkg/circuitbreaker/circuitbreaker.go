// Package circuitbreaker 保护远程存储后端：连续失败后短路，超时后半开试探。
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"focusdesk/pkg/clock"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 直接拒绝
	StateHalfOpen              // 放行少量试探请求
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置，零值字段取默认
type Config struct {
	// Name 出现在状态变化回调里，通常是后端名
	Name string
	// 连续失败多少次后打开
	FailureThreshold int
	// 半开状态下成功多少次后关闭
	SuccessThreshold int
	// 打开状态持续多久后进入半开
	Timeout time.Duration
	// 半开状态下同时放行的最大请求数
	HalfOpenMaxRequests int
	// OnStateChange 在持锁状态下调用，不要在里面回调熔断器
	OnStateChange func(name string, from, to State)
	// Clock 默认为系统时钟
	Clock clock.Clock
}

var defaults = Config{
	FailureThreshold:    5,
	SuccessThreshold:    2,
	Timeout:             30 * time.Second,
	HalfOpenMaxRequests: 3,
}

// ErrCircuitBreakerOpen is returned without calling fn while the breaker rejects requests.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreaker struct {
	cfg Config

	mu       sync.Mutex
	state    State
	failures int
	passes   int
	inflight int
	since    time.Time
	// generation 每次状态切换加一，结果只记到放行时的那一代
	generation uint64
}

func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaults.SuccessThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = defaults.HalfOpenMaxRequests
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New(time.UTC)
	}
	return &CircuitBreaker{
		cfg:   cfg,
		state: StateClosed,
		since: cfg.Clock.Now(),
	}
}

// Execute 在熔断保护下调用 fn；被拒绝时 fn 不会执行
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if gen != cb.generation {
		return err
	}
	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	return err
}

func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()

	switch cb.state {
	case StateOpen:
		return 0, ErrCircuitBreakerOpen
	case StateHalfOpen:
		if cb.inflight >= cb.cfg.HalfOpenMaxRequests {
			return 0, ErrCircuitBreakerOpen
		}
		cb.inflight++
	}
	return cb.generation, nil
}

// expire 打开超时后转为半开
func (cb *CircuitBreaker) expire() {
	if cb.state == StateOpen && cb.cfg.Clock.Now().Sub(cb.since) >= cb.cfg.Timeout {
		cb.transition(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.passes = 0
	cb.inflight = 0
	cb.since = cb.cfg.Clock.Now()
	cb.generation++
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

func (cb *CircuitBreaker) recordFailure() {
	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateOpen)
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.passes++
		cb.inflight--
		if cb.passes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// GetState 返回当前状态，会先处理打开超时
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()
	return cb.state
}
