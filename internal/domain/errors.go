package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. Use ValidationError to carry a message.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateIdentity is returned when registering a username that already exists.
	ErrDuplicateIdentity = errors.New("username already exists")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated means no usable token was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the token is invalid or expired, or the role is insufficient.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage marks a persistence failure. Use StorageError to keep the cause.
	ErrStorage = errors.New("storage error")
)

// ErrAdminRequired is the ErrForbidden case where the token is valid but the role is not admin.
var ErrAdminRequired = fmt.Errorf("%w: admin access required", ErrForbidden)

// ValidationError describes rejected input in client-facing terms.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError wraps a failure returned by the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
