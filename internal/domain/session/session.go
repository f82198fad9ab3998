package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/providers/storage"
)

// Runner executes source for a language.
type Runner interface {
	Run(ctx context.Context, languageID, source string) dispatch.Result
}

// Recorder receives session activity for metrics.
type Recorder interface {
	SessionsActive(n int)
	SnippetSaved(languageID string, ok bool)
}

// Options configures sessions created by a Manager.
type Options struct {
	// ReloadSavedOnSwitch loads the saved snippet, when one exists, instead
	// of the language default on SelectLanguage.
	ReloadSavedOnSwitch bool
	Logger              *zap.Logger
	Recorder            Recorder
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID          string           `json:"id"`
	Language    string           `json:"language"`
	Source      string           `json:"source"`
	Output      string           `json:"output"`
	Result      *dispatch.Result `json:"result,omitempty"`
	Running     bool             `json:"running"`
	Preferences Preferences      `json:"preferences"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Session is one user's playground state.
type Session struct {
	id       string
	registry *language.Registry
	runner   Runner
	store    storage.Store
	opts     Options
	logger   *zap.Logger

	mu          sync.Mutex
	languageID  string
	source      string
	output      string
	last        *dispatch.Result
	running     bool
	// bumped whenever the output is cleared so a run in flight does not
	// write a result for a language or source that was replaced
	generation  uint64
	preferences Preferences
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates a session showing profile's default source.
func New(id string, profile language.Profile, registry *language.Registry, runner Runner, store storage.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now()
	return &Session{
		id:          id,
		registry:    registry,
		runner:      runner,
		store:       store,
		opts:        opts,
		logger:      logger.With(zap.String("session", id)),
		languageID:  profile.ID,
		source:      profile.DefaultSource,
		preferences: DefaultPreferences(),
		createdAt:   now,
		updatedAt:   now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Language returns the selected language id.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.languageID
}

// SelectLanguage switches language, replacing the source with the language
// default and clearing the output.
func (s *Session) SelectLanguage(ctx context.Context, id string) error {
	profile, err := s.registry.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, id)
	}

	source := profile.DefaultSource
	if s.opts.ReloadSavedOnSwitch && s.store != nil {
		saved, err := s.store.Get(ctx, storage.Key(id))
		switch {
		case err == nil:
			source = saved
		case !errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("Saved snippet unavailable, using default", zap.String("language", id), zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.languageID = profile.ID
	s.source = source
	s.clearOutputLocked()
	s.touch()
	return nil
}

// UpdateSource replaces the source text.
func (s *Session) UpdateSource(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = text
	s.touch()
}

// UpdatePreferences validates and applies editor settings.
func (s *Session) UpdatePreferences(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.preferences = p
	s.touch()
	return nil
}

// Preferences returns the editor settings.
func (s *Session) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences
}

// Reset restores the default source of the current language and clears
// the output.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.registry.Get(s.languageID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, s.languageID)
	}
	s.source = profile.DefaultSource
	s.clearOutputLocked()
	s.touch()
	return nil
}

// ClearOutput empties the output pane.
func (s *Session) ClearOutput() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearOutputLocked()
	s.touch()
}

// LoadExample replaces the source with the language's example at index.
func (s *Session) LoadExample(index int) (language.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.registry.Get(s.languageID)
	if err != nil {
		return language.Snippet{}, fmt.Errorf("%w: %s", ErrUnknownLanguage, s.languageID)
	}
	if index < 0 || index >= len(profile.Examples) {
		return language.Snippet{}, fmt.Errorf("%w: %s has %d examples", ErrExampleNotFound, profile.ID, len(profile.Examples))
	}

	example := profile.Examples[index]
	s.source = example.Source
	s.touch()
	return example, nil
}

// Save writes the current source under the current language's key.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	languageID, source := s.languageID, s.source
	s.mu.Unlock()

	err := s.save(ctx, languageID, source)
	if s.opts.Recorder != nil {
		s.opts.Recorder.SnippetSaved(languageID, err == nil)
	}
	if err != nil {
		s.logger.Warn("Save failed", zap.String("language", languageID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) save(ctx context.Context, languageID, source string) error {
	if s.store == nil {
		return fmt.Errorf("%w: no store configured", ErrStorageUnavailable)
	}
	if err := s.store.Set(ctx, storage.Key(languageID), source); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Load replaces the source with the saved snippet of the current language.
func (s *Session) Load(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("%w: no store configured", ErrStorageUnavailable)
	}

	languageID := s.Language()
	saved, err := s.store.Get(ctx, storage.Key(languageID))
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNoSavedSnippet, languageID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the language may have changed while the store was read
	if s.languageID == languageID {
		s.source = saved
		s.touch()
	}
	return saved, nil
}

// Run executes the current source. The output is replaced wholesale by the
// run's result.
func (s *Session) Run(ctx context.Context) (dispatch.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return dispatch.Result{}, ErrAlreadyRunning
	}
	s.running = true
	s.output = ""
	languageID, source, generation := s.languageID, s.source, s.generation
	s.mu.Unlock()

	result := s.runner.Run(ctx, languageID, source)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.generation != generation {
		s.logger.Debug("Discarding result of a superseded run", zap.String("language", languageID))
		return result, nil
	}
	s.output = result.Output
	s.last = &result
	s.touch()
	return result, nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		Language:    s.languageID,
		Source:      s.source,
		Output:      s.output,
		Running:     s.running,
		Preferences: s.preferences,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.last != nil {
		last := *s.last
		last.Lines = append([]string(nil), s.last.Lines...)
		snap.Result = &last
	}
	return snap
}

func (s *Session) clearOutputLocked() {
	s.output = ""
	s.last = nil
	s.generation++
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
