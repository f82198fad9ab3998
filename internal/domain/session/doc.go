// Package session holds the editable state of playground sessions.
//
// A Session owns the selected language, the current source text, the last
// run output and the editor preferences. Runs are delegated to a Runner
// (normally a dispatch.Dispatcher) and at most one run is in flight per
// session; a second request while running fails with ErrAlreadyRunning.
// Snippets are saved to and loaded from a storage.Store under the key
// playground_<languageId>.
//
// Switching language replaces the source with the language default and
// clears the output, discarding unsaved edits. With
// Options.ReloadSavedOnSwitch set, a previously saved snippet for the new
// language is loaded instead of the default.
//
// Example Usage:
//
//	manager := session.NewManager(registry, dispatcher, store, session.Options{})
//	s, err := manager.Create(ctx, "javascript")
//	s.UpdateSource("console.log(1)")
//	result, err := s.Run(ctx)
package session
