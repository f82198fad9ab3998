// Package resilience guards calls to collaborators that can go away, such as
// the snippet store, behind a circuit breaker.
//
// A breaker starts closed. After FailureThreshold consecutive failures it
// opens and rejects calls with ErrCircuitOpen until Cooldown elapses, then
// admits HalfOpenProbes trial calls. A successful probe run closes it again;
// any failed probe reopens it.
package resilience
