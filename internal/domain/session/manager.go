package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/providers/storage"
)

// Stats summarizes the sessions a Manager holds.
type Stats struct {
	Total      int            `json:"total"`
	Running    int            `json:"running"`
	ByLanguage map[string]int `json:"by_language"`
}

// Manager owns sessions keyed by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session // Protected by mu
	registry *language.Registry
	runner   Runner
	store    storage.Store
	opts     Options
}

// NewManager creates a session manager. store may be nil, in which case
// Save and Load fail with ErrStorageUnavailable.
func NewManager(registry *language.Registry, runner Runner, store storage.Store, opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		runner:   runner,
		store:    store,
		opts:     opts,
	}
}

// WithRecorder adds metrics tracking to the manager and its sessions.
func (m *Manager) WithRecorder(r Recorder) *Manager {
	m.mu.Lock()
	m.opts.Recorder = r
	m.mu.Unlock()
	return m
}

// Create starts a session in languageID, or the first registered language
// when languageID is empty.
func (m *Manager) Create(ctx context.Context, languageID string) (*Session, error) {
	profile := m.registry.First()
	if languageID != "" {
		p, err := m.registry.Get(languageID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, languageID)
		}
		profile = p
	}

	m.mu.Lock()
	s := New(uuid.New().String(), profile, m.registry, m.runner, m.store, m.opts)
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	if m.opts.ReloadSavedOnSwitch && languageID != "" {
		if err := s.SelectLanguage(ctx, profile.ID); err != nil {
			return nil, err
		}
	}

	m.recordActive(n)
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete discards the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	m.recordActive(n)
	return nil
}

// List returns snapshots of all sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// SavedLanguages lists the registered languages that have a saved snippet.
func (m *Manager) SavedLanguages(ctx context.Context) ([]string, error) {
	if m.store == nil {
		return nil, fmt.Errorf("%w: no store configured", ErrStorageUnavailable)
	}
	keys, err := m.store.Keys(ctx, storage.KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	languages := make([]string, 0, len(keys))
	for _, key := range keys {
		if id, ok := storage.LanguageFromKey(key); ok && m.registry.Has(id) {
			languages = append(languages, id)
		}
	}
	return languages, nil
}

// ForgetSaved deletes the saved snippet of languageID. Forgetting a
// language with nothing saved succeeds.
func (m *Manager) ForgetSaved(ctx context.Context, languageID string) error {
	if !m.registry.Has(languageID) {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, languageID)
	}
	if m.store == nil {
		return fmt.Errorf("%w: no store configured", ErrStorageUnavailable)
	}
	if err := m.store.Delete(ctx, storage.Key(languageID)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	stats := Stats{ByLanguage: make(map[string]int)}
	for _, snap := range m.List() {
		stats.Total++
		if snap.Running {
			stats.Running++
		}
		stats.ByLanguage[snap.Language]++
	}
	return stats
}

func (m *Manager) recordActive(n int) {
	m.mu.RLock()
	r := m.opts.Recorder
	m.mu.RUnlock()
	if r != nil {
		r.SessionsActive(n)
	}
}
