package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Pool manages a pool of reusable sandboxes
type Pool struct {
	config    Config
	sandboxes chan *Runtime
	size      int
	logger    *zap.Logger
	mu        sync.RWMutex
	closed    bool
}

// NewPool creates a sandbox pool
func NewPool(config Config, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := config.PoolSize
	if size <= 0 {
		size = 4
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 5 * time.Second
	}

	pool := &Pool{
		config:    config,
		sandboxes: make(chan *Runtime, size),
		size:      size,
		logger:    logger.Named("sandbox"),
	}

	for i := 0; i < size; i++ {
		sandbox, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.sandboxes <- sandbox
	}

	return pool, nil
}

// Acquire gets a sandbox from pool with timeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(p.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case sandbox := <-p.sandboxes:
		return sandbox, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release resets sandbox and returns it to the pool. A sandbox that fails to
// reset is replaced with a new one.
func (p *Pool) Release(sandbox *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return sandbox.Close()
	}

	if err := sandbox.Reset(); err != nil {
		p.logger.Warn("Sandbox reset failed, replacing runtime", zap.Error(err))
		sandbox.Close()
		replacement, newErr := New(p.config)
		if newErr != nil {
			return newErr
		}
		sandbox = replacement
	}

	select {
	case p.sandboxes <- sandbox:
		return nil
	default:
		return sandbox.Close()
	}
}

// Execute runs source on a pooled sandbox.
func (p *Pool) Execute(ctx context.Context, source string, sink capture.Sink) (*Result, error) {
	sandbox, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Release(sandbox); err != nil {
			p.logger.Error("Failed to release sandbox", zap.Error(err))
		}
	}()

	return sandbox.Execute(ctx, source, sink)
}

// Evaluate runs a JavaScript snippet, discarding its completion value.
func (p *Pool) Evaluate(ctx context.Context, source string, sink capture.Sink) error {
	_, err := p.Execute(ctx, source, sink)
	return err
}

// Close closes pool and all sandboxes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.sandboxes)

	for sandbox := range p.sandboxes {
		sandbox.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.sandboxes),
		"in_use":    p.size - len(p.sandboxes),
		"closed":    p.closed,
	}
}
