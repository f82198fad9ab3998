package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
)

// internalError is shown in place of host failures so no Go detail leaks.
const internalError = "Internal error while running the snippet."

// Observer receives one call per finished run.
type Observer interface {
	ObserveRun(languageID string, outcome Outcome, duration time.Duration)
}

// Options configures a Dispatcher.
type Options struct {
	Evaluators map[string]Evaluator
	Renderer   Renderer
	Observer   Observer
	Logger     *zap.Logger
	// OnTransition is called for every lifecycle step of every request.
	OnTransition func(languageID string, from, to State)
}

// Dispatcher selects a strategy per language and runs it.
type Dispatcher struct {
	registry   *language.Registry
	channel    *capture.Channel
	strategies map[language.Strategy]Strategy
	observer   Observer
	logger     *zap.Logger
	transition func(string, State, State)
}

// New creates a dispatcher over registry. Captured runs go through channel.
func New(registry *language.Registry, channel *capture.Channel, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == nil {
		channel = capture.NewChannel(capture.NewLoggerSink(logger))
	}

	return &Dispatcher{
		registry: registry,
		channel:  channel,
		strategies: map[language.Strategy]Strategy{
			language.StrategyEvaluate:    Evaluate{Evaluators: opts.Evaluators},
			language.StrategyMarkup:      Markup{Renderer: opts.Renderer},
			language.StrategyStylesheet:  Stylesheet{},
			language.StrategyUnsupported: Unsupported{},
		},
		observer:   opts.Observer,
		logger:     logger,
		transition: opts.OnTransition,
	}
}

// Channel returns the diagnostic channel captured runs redirect.
func (d *Dispatcher) Channel() *capture.Channel {
	return d.channel
}

// Registry returns the language table the dispatcher routes on.
func (d *Dispatcher) Registry() *language.Registry {
	return d.registry
}

// Run executes source as languageID. It never panics; every problem is
// reported through the returned Result.
func (d *Dispatcher) Run(ctx context.Context, languageID, source string) (result Result) {
	start := time.Now()
	d.step(languageID, StateIdle, StateRunning)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Run panicked",
				zap.String("language", languageID),
				zap.Any("panic", r),
			)
			result = failure(internalError, nil)
		}
		result.Language = languageID
		result.Duration = time.Since(start)

		terminal := result.Outcome.Terminal()
		d.step(languageID, StateRunning, terminal)
		d.step(languageID, terminal, StateIdle)

		if d.observer != nil {
			d.observer.ObserveRun(languageID, result.Outcome, result.Duration)
		}
		d.logger.Debug("Run finished",
			zap.String("language", languageID),
			zap.String("outcome", string(result.Outcome)),
			zap.Int("lines", len(result.Lines)),
			zap.Duration("duration", result.Duration),
		)
	}()

	profile, err := d.registry.Get(languageID)
	if err != nil {
		return unsupported(UnsupportedNotice(language.Profile{ID: languageID}))
	}

	strategy, ok := d.strategies[profile.Strategy]
	if !ok {
		return unsupported(UnsupportedNotice(profile))
	}

	if profile.Strategy != language.StrategyEvaluate {
		out, err := strategy.Execute(ctx, profile, source, d.channel.Sink())
		return d.finish(out, nil, err)
	}

	out, lines, err := capture.With(ctx, d.channel, func(sink capture.Sink) (Output, error) {
		return strategy.Execute(ctx, profile, source, sink)
	})
	return d.finish(out, lines, err)
}

func (d *Dispatcher) finish(out Output, lines []string, err error) Result {
	if err != nil {
		msg, ok := diagnostic(err)
		if !ok {
			d.logger.Error("Strategy failed", zap.Error(err))
			msg = internalError
		}
		return failure(msg, lines)
	}
	if out.Unsupported {
		return unsupported(out.Notice)
	}
	res := success(lines, out.Notice)
	res.Preview = out.Preview
	return res
}

func (d *Dispatcher) step(languageID string, from, to State) {
	if d.transition != nil {
		d.transition(languageID, from, to)
	}
}
