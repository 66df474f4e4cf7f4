package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown chat session.
	ErrNotFound = errors.New("not found")
	// ErrSessionBusy is returned when a chat session already has a request in flight.
	ErrSessionBusy = errors.New("session busy")
)

// ValidationError reports a rejected request field. Field uses the name the
// widget or booking form sends.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// WrapError prefixes err with msg, keeping it matchable with errors.Is/As.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
