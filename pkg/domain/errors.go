package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed client input. Nothing has
// been touched on disk or spawned when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FilesystemError reports a failed directory or file operation.
type FilesystemError struct {
	Op  string
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
