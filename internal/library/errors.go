package library

import (
	"fmt"

	"github.com/desertthunder/melodylog/internal/shared"
)

// PersistenceError is a failed write to the backing store.
//
// It matches both [shared.ErrPersistence] and the underlying cause with errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{shared.ErrPersistence, e.Err}
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
