// Package middleware provides the gin middleware shared by the playground
// HTTP and WebSocket routes: CORS, per-client rate limiting and request
// body limits.
package middleware
