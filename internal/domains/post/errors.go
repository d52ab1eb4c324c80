package post

import "errors"

// Repository-level errors
var (
	// ErrPostNotFound is returned when the referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrWriteFailed is returned when a create, update or delete could not
	// reach the store. The operation stays retryable by re-submission.
	ErrWriteFailed = errors.New("failed to write post")

	// ErrLoadFailed is returned when a one-shot read (the edit-form load)
	// fails for a reason other than absence.
	ErrLoadFailed = errors.New("failed to load post")
)
