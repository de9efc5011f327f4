package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("todo not found")
	ErrBackend  = errors.New("storage backend unavailable")
)

type NotFoundError struct {
	ID int
}

func NewNotFoundError(id int) *NotFoundError {
	return &NotFoundError{ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo not found, id is %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BackendError marks a connectivity or query failure of a database backend.
// It is never used for a missing row.
type BackendError struct {
	Op  string
	Err error
}

func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrBackend.Error(), e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
