package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/resilience"
)

type flakyStore struct {
	*Memory
	down  bool
	calls int
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.calls++
	if f.down {
		return fmt.Errorf("%w: disk full", ErrUnavailable)
	}
	return f.Memory.Set(ctx, key, value)
}

func TestGuardPassesThrough(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(NewMemory(0), nil)

	require.NoError(t, g.Set(ctx, "k", "v"))
	v, err := g.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	keys, err := g.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestGuardNotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(NewMemory(0), nil)

	for i := 0; i < 10; i++ {
		_, err := g.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, g.State())
}

func TestGuardOpensOnRepeatedFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: NewMemory(0), down: true}
	g := NewGuard(store, nil)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, g.Set(ctx, "k", "v"), ErrUnavailable)
	}
	assert.Equal(t, resilience.StateOpen, g.State())

	// short-circuited without touching the store
	err := g.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, store.calls)
}
