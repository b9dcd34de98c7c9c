package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed user input. The dialog resolves it by
	// reprompting; it never reaches the transport.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks a bad signature or an unknown sender
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a referenced entity that no longer exists
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a persistence failure
	ErrStorage = errors.New("storage failure")
	// ErrTransientMedia marks a photo fetch or upload failure
	ErrTransientMedia = errors.New("media transfer failed")
	// ErrBusy marks a conversation already being processed by another request
	ErrBusy = errors.New("conversation busy")
)

// StorageError wraps a persistence failure with the operation that failed
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError wraps err as a StorageError for op
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
