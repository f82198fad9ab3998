// Package dispatch routes a run request to the execution strategy of its
// language and turns every outcome, including host panics, into a Result.
//
// Evaluated languages run inside capture.With so console output is
// collected in emission order and the shared channel is restored afterward.
// Markup is written into a detached document that is discarded after the
// preview is taken. Stylesheets are acknowledged without validation.
// Everything else is reported as Unsupported and never evaluated.
package dispatch
