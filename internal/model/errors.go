package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Callers match them with errors.Is; the concrete errors carry
// context added with errors.Wrap.
var (
	// ErrNotFound is returned when an operation names a node id that is not in
	// the tree. It is a no-op result, not a failure of the session.
	ErrNotFound = errors.New("node not found")

	// ErrInvariant is returned when an operation would break a tree invariant:
	// deleting or moving the root, a duplicate id, a cycle.
	ErrInvariant = errors.New("invariant violation")

	// ErrStorage marks failures of the underlying persistence layer.
	ErrStorage = errors.New("storage failure")

	// ErrMalformedInput marks imported or stored data that does not have the
	// shape of a mind map document.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownField is returned by EditField for fields other than title and
	// description.
	ErrUnknownField = errors.New("unknown field")
)

// StorageError wraps an I/O failure of a store operation.
type StorageError struct {
	Op  string // load, save, clear
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage as a match so callers do not need errors.As.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// MalformedInputError describes why a payload was rejected.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// Malformed builds a MalformedInputError.
func Malformed(reason string, err error) error {
	return &MalformedInputError{Reason: reason, Err: err}
}
