package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/providers/markup"
)

const (
	NoticeRendered = "HTML rendered successfully. Check the preview tab."
	NoticeApplied  = "CSS applied successfully. Check the preview tab."
)

// Evaluator compiles and runs source, writing console output to sink.
// Errors that should reach the user implement Diagnostic.
type Evaluator interface {
	Evaluate(ctx context.Context, source string, sink capture.Sink) error
}

// Renderer writes markup into a detached document and summarizes it.
type Renderer interface {
	Render(ctx context.Context, source string) (*markup.Preview, error)
}

// Diagnostic is implemented by errors whose text belongs to the snippet.
type Diagnostic interface {
	Diagnostic() string
}

// Output is what a strategy reports back to the dispatcher.
type Output struct {
	Notice      string
	Preview     *markup.Preview
	Unsupported bool
}

// Strategy is the execution path for one kind of language.
type Strategy interface {
	Execute(ctx context.Context, profile language.Profile, source string, sink capture.Sink) (Output, error)
}

// Evaluate runs snippets through the evaluator registered for the language.
type Evaluate struct {
	Evaluators map[string]Evaluator
}

// Execute evaluates source, treating a language without an evaluator as unsupported.
func (e Evaluate) Execute(ctx context.Context, profile language.Profile, source string, sink capture.Sink) (Output, error) {
	evaluator, ok := e.Evaluators[profile.ID]
	if !ok {
		return Unsupported{}.Execute(ctx, profile, source, sink)
	}
	return Output{}, evaluator.Evaluate(ctx, source, sink)
}

// Markup renders HTML into a throwaway document.
type Markup struct {
	Renderer Renderer
}

// Execute renders source and attaches the preview.
func (m Markup) Execute(ctx context.Context, profile language.Profile, source string, sink capture.Sink) (Output, error) {
	if m.Renderer == nil {
		return Output{Notice: NoticeRendered}, nil
	}
	preview, err := m.Renderer.Render(ctx, source)
	if err != nil {
		return Output{}, err
	}
	return Output{Notice: NoticeRendered, Preview: preview}, nil
}

// Stylesheet acknowledges CSS without checking it.
type Stylesheet struct{}

// Execute always succeeds with the applied notice.
func (Stylesheet) Execute(context.Context, language.Profile, string, capture.Sink) (Output, error) {
	return Output{Notice: NoticeApplied}, nil
}

// Unsupported reports that the language needs a remote execution service.
type Unsupported struct{}

// Execute returns the language notice without running anything.
func (Unsupported) Execute(_ context.Context, profile language.Profile, _ string, _ capture.Sink) (Output, error) {
	return Output{Notice: UnsupportedNotice(profile), Unsupported: true}, nil
}

// UnsupportedNotice is the message shown for a language that cannot run here.
func UnsupportedNotice(profile language.Profile) string {
	if profile.Notice != "" {
		return profile.Notice
	}
	name := profile.Label
	if name == "" {
		name = profile.ID
	}
	return fmt.Sprintf("%s execution requires an external execution service.", name)
}

// diagnostic extracts the user-facing text of err.
func diagnostic(err error) (string, bool) {
	var d Diagnostic
	if errors.As(err, &d) {
		return d.Diagnostic(), true
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "execution timeout exceeded", true
	case errors.Is(err, context.Canceled):
		return "execution cancelled", true
	case errors.Is(err, markup.ErrTooLarge):
		return markup.ErrTooLarge.Error(), true
	}
	return "", false
}
