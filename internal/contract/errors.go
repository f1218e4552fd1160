package contract

import "errors"

// Error taxonomy shared by the tiers. Adapters wrap these with %w so callers
// can match them with errors.Is.
var (
	// ErrRemoteUnavailable means the remote tier could not be reached or failed.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrQuotaExceeded means a fallback write does not fit in the store's limit.
	ErrQuotaExceeded = errors.New("fallback store quota exceeded")

	// ErrNotFound means no record exists for the requested key in a tier.
	ErrNotFound = errors.New("record not found")

	// ErrInitialization means the structured local tier failed to open.
	ErrInitialization = errors.New("structured store initialization failed")
)
