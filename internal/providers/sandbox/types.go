package sandbox

import (
	"context"
	"time"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
)

// Config defines sandbox configuration
type Config struct {
	MaxCallStackSize int           // Maximum JS call depth
	Timeout          time.Duration // Per-run timeout, zero disables it
	PoolSize         int           // Number of pre-built runtimes
	AcquireTimeout   time.Duration // How long Execute waits for a free runtime
}

// Result holds execution result
type Result struct {
	Value    interface{}   // Completion value of the snippet
	Duration time.Duration // Execution time
}

// Sandbox defines the JavaScript execution interface
type Sandbox interface {
	Execute(ctx context.Context, source string, sink capture.Sink) (*Result, error)
	Reset() error
	Close() error
}

// DefaultConfig returns the configuration used by the playground.
func DefaultConfig() Config {
	return Config{
		MaxCallStackSize: 1024,
		Timeout:          0,
		PoolSize:         4,
		AcquireTimeout:   5 * time.Second,
	}
}

// ScriptError is a failure raised by the snippet rather than the host.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// Diagnostic returns the text shown to the user.
func (e *ScriptError) Diagnostic() string {
	return e.Message
}
