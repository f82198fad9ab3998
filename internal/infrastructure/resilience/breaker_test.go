package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("store down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(clock *fakeClock, transitions *[]string) *Breaker {
	return New("store", Settings{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
		HalfOpenProbes:   1,
		OnStateChange: func(_ string, from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		},
		now: clock.Now,
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{name: "stays closed on successes", requests: []bool{true, true, true}, expectedState: StateClosed},
		{name: "opens after consecutive failures", requests: []bool{false, false, false}, expectedState: StateOpen},
		{name: "success resets the failure streak", requests: []bool{false, false, true, false, false}, expectedState: StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var transitions []string
			breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, &transitions)

			for _, ok := range tt.requests {
				_ = breaker.Do(func() error {
					if ok {
						return nil
					}
					return errDown
				})
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	var transitions []string
	breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, &transitions)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, breaker.Do(func() error { return errDown }), errDown)
	}

	called := false
	err := breaker.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerRecovers(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	breaker := newTestBreaker(clock, &transitions)

	for i := 0; i < 3; i++ {
		_ = breaker.Do(func() error { return errDown })
	}
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, breaker.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	breaker := newTestBreaker(clock, &transitions)

	for i := 0; i < 3; i++ {
		_ = breaker.Do(func() error { return errDown })
	}
	clock.Advance(time.Minute)

	assert.ErrorIs(t, breaker.Do(func() error { return errDown }), errDown)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	var transitions []string
	breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, &transitions)

	for i := 0; i < 3; i++ {
		assert.Panics(t, func() {
			_ = breaker.Do(func() error { panic("disk on fire") })
		})
	}
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerDefaults(t *testing.T) {
	breaker := New("defaults", Settings{})
	assert.Equal(t, "defaults", breaker.Name())
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, "unknown", State(42).String())
}
