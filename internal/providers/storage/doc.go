// Package storage persists playground snippets in a key-value store.
//
// Keys follow the browser playground's local-storage convention,
// playground_<languageId>, and values are the raw source text with no
// envelope or schema version. Four drivers are provided:
//
//   - memory: process-local map with an optional quota
//   - file:   one file per key under a directory
//   - sqlite: single table in a local database (modernc.org/sqlite)
//   - redis:  plain string keys (go-redis)
//
// Guard wraps any driver in a circuit breaker so a failing medium is
// reported as ErrUnavailable quickly instead of stalling every save.
package storage
