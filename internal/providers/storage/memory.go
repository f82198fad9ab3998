package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Memory is an in-process store. It mirrors browser local storage, including
// a byte quota across all values.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	used   int
	quota  int
	closed bool
}

// NewMemory creates a memory store; quota <= 0 disables the limit.
func NewMemory(quota int) *Memory {
	return &Memory{data: make(map[string]string), quota: quota}
}

// Get returns the value under key or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrUnavailable
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key, failing with ErrQuotaExceeded past the quota.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}
	used := m.used - len(m.data[key]) + len(value)
	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("%w (%d of %d bytes)", ErrQuotaExceeded, used, m.quota)
	}
	m.data[key] = value
	m.used = used
	return nil
}

// Delete removes key. Removing a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrUnavailable
	}
	m.used -= len(m.data[key])
	delete(m.data, key)
	return nil
}

// Keys returns the sorted keys matching pattern.
func (m *Memory) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		ok, err := doublestar.Match(pattern, k)
		if err != nil {
			return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
		}
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close makes every later call fail with ErrUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
