package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdesk/pkg/clock"
)

var errBackend = errors.New("backend down")

type transition struct{ from, to State }

func newTestBreaker(clk *clock.Fixed, seen *[]transition) *CircuitBreaker {
	return NewCircuitBreaker(Config{
		Name:                "redis",
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
		Clock:               clk,
		OnStateChange: func(name string, from, to State) {
			if seen != nil {
				*seen = append(*seen, transition{from, to})
			}
		},
	})
}

var start = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := clock.NewFixed(start)
	cb := newTestBreaker(clk, nil)

	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clk := clock.NewFixed(start)
	var seen []transition
	cb := newTestBreaker(clk, &seen)

	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return errBackend })
	require.Equal(t, StateOpen, cb.GetState())

	clk.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, seen)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewFixed(start)
	cb := newTestBreaker(clk, nil)

	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return errBackend })
	clk.Advance(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 2, Timeout: time.Second})

	_ = cb.Execute(func() error { return errBackend })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBackend })
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, "closed", cb.GetState().String())
}

func TestCircuitBreaker_StaleResultIgnoredAfterTransition(t *testing.T) {
	clk := clock.NewFixed(start)
	cb := NewCircuitBreaker(Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
		Clock:               clk,
	})

	admitted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(admitted)
			<-release
			return nil
		})
	}()
	<-admitted

	// opens while the slow request is still running, then expires into half-open
	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	require.Equal(t, StateOpen, cb.GetState())
	clk.Advance(11 * time.Second)
	require.Equal(t, StateHalfOpen, cb.GetState())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateHalfOpen, cb.GetState(), "result admitted while closed must not close the breaker")

	// the half-open trial slot is still available
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}
