// Package monitoring collects Prometheus metrics for the playground server.
//
// Metrics cover HTTP traffic, snippet runs per language and outcome, live
// sessions, snippet saves and WebSocket connections. Recent run durations
// are also kept in memory so /stats can report mean and percentiles
// computed with gonum.
//
// Metrics implements dispatch.Observer and session.Recorder, so it can be
// handed directly to the dispatcher and session manager.
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
//	router.Use(monitoring.Middleware(metrics))
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
package monitoring
