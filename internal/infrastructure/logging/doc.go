// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Components receive a *zap.Logger and name themselves with Component, so
// every line carries the subsystem that wrote it ("sandbox", "http", ...).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	pool, err := sandbox.NewPool(cfg, logger.Component("sandbox"))
package logging
