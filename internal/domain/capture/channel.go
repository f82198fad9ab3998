package capture

import (
	"context"
	"fmt"
	"sync"
)

// Channel is the process-wide console channel. Only With may swap its sink
// for capture, and only for the duration of one body.
type Channel struct {
	// one-slot semaphore held for the whole of a capture so runs never
	// interleave
	run chan struct{}

	mu   sync.RWMutex
	sink Sink
}

// NewChannel creates a channel whose resting sink is sink.
func NewChannel(sink Sink) *Channel {
	return &Channel{sink: sink, run: make(chan struct{}, 1)}
}

// Sink returns the currently installed sink.
func (c *Channel) Sink() Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sink
}

// Set installs sink and returns the one it replaced.
func (c *Channel) Set(sink Sink) Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.sink
	c.sink = sink
	return prev
}

// Emit writes one console call to the installed sink.
func (c *Channel) Emit(args ...string) {
	if s := c.Sink(); s != nil {
		s.Emit(FormatArgs(args))
	}
}

// With runs body with a fresh capture buffer installed on ch and hands the
// same buffer to body as its output sink. The prior sink is restored on every
// exit path, including a panic in body, which is re-raised after the restore.
// Concurrent calls are serialized; a call still waiting for its turn when ctx
// ends returns ctx's error without running body.
func With[T any](ctx context.Context, ch *Channel, body func(Sink) (T, error)) (result T, lines []string, err error) {
	select {
	case ch.run <- struct{}{}:
	case <-ctx.Done():
		return result, nil, fmt.Errorf("waiting for capture: %w", ctx.Err())
	}
	defer func() { <-ch.run }()

	buf := &Buffer{}
	prev := ch.Set(buf)
	defer ch.Set(prev)

	result, err = body(buf)
	return result, buf.Lines(), err
}
