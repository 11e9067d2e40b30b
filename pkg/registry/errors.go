package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is matched by errors.Is for any DuplicateNameError
	ErrDuplicateName = errors.New("location already exists")
	// ErrNotFound is used by callers that turn an absent result into an error
	ErrNotFound = errors.New("location not found")
	// ErrMalformedStorage is matched by errors.Is for any MalformedStorageError
	ErrMalformedStorage = errors.New("malformed storage file")
	// ErrPersistence is matched by errors.Is for any PersistenceError
	ErrPersistence = errors.New("failed to persist locations")
)

// DuplicateNameError is returned by Add when the name is already taken
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("location %q already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// MalformedStorageError means the backing file exists but cannot be used.
// It is fatal at startup.
type MalformedStorageError struct {
	Path string
	Err  error
}

func (e *MalformedStorageError) Error() string {
	return fmt.Sprintf("malformed storage file %s: %v", e.Path, e.Err)
}

func (e *MalformedStorageError) Unwrap() error { return e.Err }

func (e *MalformedStorageError) Is(target error) bool {
	return target == ErrMalformedStorage
}

// PersistenceError wraps an I/O failure while reading or writing the backing file
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
