// Package main is the entry point for the code playground server.
//
// The server runs JavaScript and TypeScript snippets in pooled in-process
// sandboxes, renders HTML into detached documents and reports every other
// language as unsupported. Sessions hold the editor state of one user and
// can save snippets to the configured store.
//
// The server provides:
//   - REST API for languages, one-shot runs and sessions
//   - WebSocket streaming of a session at /sessions/:id/stream
//   - Read-only tutorial and project catalog
//   - Prometheus metrics at /metrics and a JSON summary at /stats
//
// Configuration:
//   - Environment variables (PORT, STORAGE_DRIVER, PLAYGROUND_*, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	STORAGE_DRIVER=sqlite STORAGE_PATH=./data/snippets.db ./server -port 8000
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
