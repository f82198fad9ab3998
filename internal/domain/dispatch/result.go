package dispatch

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/codeplayground/internal/providers/markup"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeFailure     Outcome = "failure"
	OutcomeUnsupported Outcome = "unsupported"
)

// State is a step of the per-request run lifecycle:
// Idle -> Running -> {Succeeded, Failed, Unsupported} -> Idle.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
	StateUnsupported State = "unsupported"
)

// Terminal returns the state a run with this outcome ends in.
func (o Outcome) Terminal() State {
	switch o {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeUnsupported:
		return StateUnsupported
	default:
		return StateFailed
	}
}

// Result is the outcome of one run request.
type Result struct {
	Language string          `json:"language"`
	Outcome  Outcome         `json:"outcome"`
	Lines    []string        `json:"lines"`
	Output   string          `json:"output"`
	Message  string          `json:"message,omitempty"`
	Notice   string          `json:"notice,omitempty"`
	Preview  *markup.Preview `json:"preview,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

func success(lines []string, notice string) Result {
	if lines == nil {
		lines = []string{}
	}
	output := strings.Join(lines, "\n")
	if notice != "" {
		output = notice
	}
	return Result{Outcome: OutcomeSuccess, Lines: lines, Output: output, Notice: notice}
}

func failure(message string, lines []string) Result {
	if lines == nil {
		lines = []string{}
	}
	return Result{Outcome: OutcomeFailure, Lines: lines, Output: "Error: " + message, Message: message}
}

func unsupported(notice string) Result {
	return Result{Outcome: OutcomeUnsupported, Lines: []string{}, Output: notice, Notice: notice}
}
