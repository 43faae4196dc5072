package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func outcome(ok bool) func() error {
	return func() error {
		if ok {
			return nil
		}
		return errFailed
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		trip          uint32
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{name: "stays closed on successes", trip: 3, requests: []bool{true, true, true}, expectedState: StateClosed},
		{name: "opens after consecutive failures", trip: 3, requests: []bool{false, false, false}, expectedState: StateOpen},
		{name: "success resets the streak", trip: 3, requests: []bool{false, false, true, false, false}, expectedState: StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := tt.trip
			breaker := New("test", Settings{
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= trip },
			})

			for _, ok := range tt.requests {
				_ = breaker.Run(outcome(ok))
			}
			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{})

	require.NoError(t, breaker.Run(outcome(true)))
	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, breaker.Run(outcome(false)), errFailed)
	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenRejectsWithoutCalling(t *testing.T) {
	breaker := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	for i := 0; i < 2; i++ {
		_ = breaker.Run(outcome(false))
	}
	require.Equal(t, StateOpen, breaker.State())

	called := false
	result, err := Do(breaker, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Empty(t, result)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clk := &clock{now: time.Unix(1000, 0)}
	var transitions []string

	breaker := New("test", Settings{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Now: clk.Now,
	})

	for i := 0; i < 2; i++ {
		_ = breaker.Run(outcome(false))
	}
	assert.Equal(t, StateOpen, breaker.State())

	clk.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, breaker.Run(outcome(true)))
	}
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clk := &clock{now: time.Unix(1000, 0)}
	breaker := New("test", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		Now:         clk.Now,
	})

	_ = breaker.Run(outcome(false))
	clk.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = breaker.Run(outcome(false))
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	breaker := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	err := breaker.Run(func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := New("test", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	assert.Panics(t, func() {
		_ = breaker.Run(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}
