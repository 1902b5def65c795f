package models

import "errors"

// Domain errors shared across handlers, launcher and engine. Infrastructure
// failures (ledger, blob store, speech-to-text) are wrapped with %w and
// classified with errors.Is against these sentinels where applicable.
var (
	// ErrNotFound means a referenced audio file, transcript or note does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means the operation is not allowed in the job's current status,
	// e.g. editing transcript text before completion.
	ErrInvalidState = errors.New("invalid state")
)
