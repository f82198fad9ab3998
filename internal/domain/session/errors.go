package session

import "errors"

var (
	ErrUnknownLanguage    = errors.New("unknown language")
	ErrAlreadyRunning     = errors.New("a run is already in progress")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNoSavedSnippet     = errors.New("no saved snippet for language")
	ErrSessionNotFound    = errors.New("session not found")
	ErrExampleNotFound    = errors.New("example not found")
	ErrInvalidPreferences = errors.New("invalid preferences")
)
