// Package language holds the static language table behind the playground
// selector.
//
// Each Profile couples a language id with its display label, starter
// source, example snippets, documentation link and the execution strategy
// the dispatcher uses for it. The table is decoded once from an embedded
// YAML seed and is immutable afterwards:
//
//	reg := language.Default()
//	js, err := reg.Get("javascript")
//	for _, p := range reg.List() { ... }
package language
