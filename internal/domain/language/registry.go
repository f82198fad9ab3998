package language

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

// ErrNotFound is returned when an id is not part of the registry.
var ErrNotFound = errors.New("language not found")

//go:embed languages.yaml
var seed []byte

// Strategy names the execution path the dispatcher takes for a language.
type Strategy string

const (
	StrategyEvaluate    Strategy = "evaluate"
	StrategyMarkup      Strategy = "markup"
	StrategyStylesheet  Strategy = "stylesheet"
	StrategyUnsupported Strategy = "unsupported"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyEvaluate, StrategyMarkup, StrategyStylesheet, StrategyUnsupported:
		return true
	}
	return false
}

// Snippet is a named example program.
type Snippet struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source" json:"source"`
}

// Profile is the static configuration of one language.
type Profile struct {
	ID               string    `yaml:"id" json:"id"`
	Label            string    `yaml:"label" json:"label"`
	Extension        string    `yaml:"extension" json:"extension"`
	Strategy         Strategy  `yaml:"strategy" json:"strategy"`
	DocumentationURL string    `yaml:"documentation" json:"documentation_url,omitempty"`
	Notice           string    `yaml:"notice" json:"-"`
	DefaultSource    string    `yaml:"default_source" json:"default_source"`
	Examples         []Snippet `yaml:"examples" json:"examples"`
}

// Registry is a read-only, ordered table of profiles.
type Registry struct {
	order []string
	byID  map[string]Profile
}

// Load decodes a YAML seed into a registry.
func Load(data []byte) (*Registry, error) {
	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode language seed: %w", err)
	}
	return New(profiles...)
}

// New builds a registry from profiles in registration order.
func New(profiles ...Profile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, errors.New("language registry requires at least one profile")
	}

	r := &Registry{
		order: make([]string, 0, len(profiles)),
		byID:  make(map[string]Profile, len(profiles)),
	}
	for i, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile %d has empty id", i)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate language id %q", p.ID)
		}
		if !p.Strategy.Valid() {
			return nil, fmt.Errorf("language %q has invalid strategy %q", p.ID, p.Strategy)
		}
		if p.Label == "" {
			p.Label = p.ID
		}
		p.Examples = append([]Snippet(nil), p.Examples...)
		r.order = append(r.order, p.ID)
		r.byID[p.ID] = p
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry decoded from the embedded seed. The seed is
// compiled into the binary, so a decode failure is a programming error.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(seed)
		if err != nil {
			panic(err)
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Get returns the profile registered under id.
func (r *Registry) Get(id string) (Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	p.Examples = append([]Snippet(nil), p.Examples...)
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns every profile in registration order.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		p, _ := r.Get(id)
		out = append(out, p)
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// First returns the first registered profile, used as the initial selection.
func (r *Registry) First() Profile {
	p, _ := r.Get(r.order[0])
	return p
}

// ByExtension returns the first profile whose file extension matches ext.
// The leading dot is optional and matching ignores case.
func (r *Registry) ByExtension(ext string) (Profile, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return Profile{}, false
	}
	for _, id := range r.order {
		p := r.byID[id]
		if strings.ToLower(strings.TrimPrefix(p.Extension, ".")) == ext {
			out, _ := r.Get(id)
			return out, true
		}
	}
	return Profile{}, false
}
