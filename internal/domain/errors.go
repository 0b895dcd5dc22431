package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers branch with errors.Is against the sentinels;
// the concrete types carry the human-readable detail.
var (
	ErrValidation  = errors.New("validation failed")
	ErrPermission  = errors.New("permission denied")
	ErrNotFound    = errors.New("not found")
	ErrTransientIO = errors.New("transient io failure")
)

type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, ErrValidation)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

func Validation(reason string) error { return ValidationError{Reason: reason} }

type PermissionError struct {
	CalendarID string
	UserID     string
	Need       Level
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("user %s needs %s on calendar %s: %v", e.UserID, e.Need, e.CalendarID, ErrPermission)
}

func (e PermissionError) Unwrap() error { return ErrPermission }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

type TransientIOError struct {
	Op  string
	Err error
}

func (e TransientIOError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Err, ErrTransientIO)
}

func (e TransientIOError) Unwrap() error { return ErrTransientIO }
