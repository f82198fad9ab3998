// Package capture makes the ambient console channel observable for the
// span of a single snippet run.
package capture

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Sink receives one formatted console line per emit.
type Sink interface {
	Emit(line string)
}

// Buffer is an ordered, append-only Sink.
type Buffer struct {
	mu    sync.Mutex
	lines []string
}

// Emit appends line.
func (b *Buffer) Emit(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Lines returns a copy of the captured lines in emission order.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(make([]string, 0, len(b.lines)), b.lines...)
}

// Len returns the number of captured lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// LoggerSink forwards console lines to a zap logger. It is the channel's
// resting sink when nothing is being captured.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink creates a sink that logs each line at info level.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger.Named("console")}
}

// Emit logs line.
func (s *LoggerSink) Emit(line string) {
	s.logger.Info("console output", zap.String("line", line))
}

// FormatArgs joins the textual form of one console call's arguments.
func FormatArgs(args []string) string {
	return strings.Join(args, " ")
}
