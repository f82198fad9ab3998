package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/resilience"
)

// Guard routes every call through a circuit breaker. Only ErrUnavailable
// failures count against the breaker; a missing key is a normal answer.
type Guard struct {
	Store
	breaker *resilience.Breaker
}

// NewGuard wraps store.
func NewGuard(store Store, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		Store: store,
		breaker: resilience.New("snippet-store", resilience.Settings{
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Storage breaker changed state",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// Get reads through the breaker. A missing key does not count as a failure.
func (g *Guard) Get(ctx context.Context, key string) (string, error) {
	var value string
	var lookupErr error
	err := g.do(func() error {
		value, lookupErr = g.Store.Get(ctx, key)
		if errors.Is(lookupErr, ErrNotFound) {
			return nil
		}
		return lookupErr
	})
	if err != nil {
		return "", err
	}
	return value, lookupErr
}

// Set writes through the breaker.
func (g *Guard) Set(ctx context.Context, key, value string) error {
	return g.do(func() error { return g.Store.Set(ctx, key, value) })
}

// Delete removes key through the breaker.
func (g *Guard) Delete(ctx context.Context, key string) error {
	return g.do(func() error { return g.Store.Delete(ctx, key) })
}

// Keys lists keys through the breaker.
func (g *Guard) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := g.do(func() error {
		var err error
		keys, err = g.Store.Keys(ctx, pattern)
		return err
	})
	return keys, err
}

// State reports the breaker state.
func (g *Guard) State() resilience.State {
	return g.breaker.State()
}

func (g *Guard) do(call func() error) error {
	var callErr error
	err := g.breaker.Do(func() error {
		callErr = call()
		if errors.Is(callErr, ErrUnavailable) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}
	return callErr
}
