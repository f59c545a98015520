// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrSongNotFound is returned when a requested song cannot be found.
	ErrSongNotFound = errors.New("song not found")

	// ErrPlaylistNotFound is returned when a requested playlist cannot be found.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrPlaylistEmpty is returned when an operation requires a playlist with resolvable members.
	ErrPlaylistEmpty = errors.New("playlist has no playable songs")

	// ErrNotInitialized is returned when the store is used before Open.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrAlreadyInitialized is returned when the store is opened twice in one process.
	ErrAlreadyInitialized = errors.New("store already initialized")
)

// ValidationError reports caller input that violates a precondition.
// It is never retried and no state is mutated before it is returned.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StorageError reports a failed single-collection operation in the persistent
// store. The store guarantees the failed operation was not partially applied
// within its collection; the caller decides whether to retry, abort, or
// surface it.
type StorageError struct {
	Op         string // Operation that failed (e.g. "put", "delete", "loadAll")
	Collection string // Collection name (e.g. "songs", "playlists")
	Err        error  // Underlying cause
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s.%s failed: %v", e.Collection, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, collection string, err error) *StorageError {
	return &StorageError{
		Op:         op,
		Collection: collection,
		Err:        err,
	}
}

// PersistenceError reports a repository operation whose store write failed
// after an in-memory mutation had already been applied. The repository rolls
// the mutation back before returning this error, so in-memory state never
// claims durability it does not have.
type PersistenceError struct {
	Op  string // Repository operation that failed (e.g. "addSong")
	ID  string // Record id involved
	Err error  // Underlying cause
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s for %q (in-memory state rolled back): %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op, id string, err error) *PersistenceError {
	return &PersistenceError{
		Op:  op,
		ID:  id,
		Err: err,
	}
}

// StepFailure records one failed step of a multi-step operation.
type StepFailure struct {
	// ID identifies the record the step operated on (e.g. a playlist id)
	ID string

	// Err is the cause
	Err error
}

// PartialFailure reports a multi-step operation in which some steps succeeded
// and others did not. Callers must not treat it as total failure: the
// succeeded steps are durable and must not be re-applied blindly.
type PartialFailure struct {
	Op        string        // Operation (e.g. "deleteSong cascade")
	Succeeded int           // Number of steps that completed
	Failures  []StepFailure // The steps that failed
}

// Error implements the error interface.
func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s partially failed: %d step(s) succeeded, %d failed", e.Op, e.Succeeded, len(e.Failures))
}

// FailedIDs returns the ids of all failed steps, in order.
func (e *PartialFailure) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ID)
	}
	return ids
}

// NewPartialFailure creates a new PartialFailure.
func NewPartialFailure(op string, succeeded int, failures []StepFailure) *PartialFailure {
	return &PartialFailure{
		Op:        op,
		Succeeded: succeeded,
		Failures:  failures,
	}
}

// PlaybackError reports that the engine could not resolve or load the track
// at the target index. The engine stays paused when it is returned.
type PlaybackError struct {
	Index   int    // Target index in the song collection
	SongID  string // Target song id, if resolved that far
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.SongID != "" {
		return fmt.Sprintf("playback failed for song %q at index %d: %s", e.SongID, e.Index, e.Message)
	}
	return fmt.Sprintf("playback failed at index %d: %s", e.Index, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError creates a new PlaybackError.
func NewPlaybackError(index int, songID, message string, err error) *PlaybackError {
	return &PlaybackError{
		Index:   index,
		SongID:  songID,
		Message: message,
		Err:     err,
	}
}
