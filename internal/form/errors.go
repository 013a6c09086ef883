package form

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a field name is not part of the form.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch is returned when a value cannot be stored in a field.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupportedValues is returned by New when the values type is
	// neither a string-keyed map nor a struct.
	ErrUnsupportedValues = errors.New("unsupported values type")

	// ErrClosed is reported by HandleSubmit after Close.
	ErrClosed = errors.New("form closed")
)

// FieldError ties a programmer error to the field that caused it.
type FieldError struct {
	Field string
	Err   error

	// Want and Got describe a type mismatch.
	Want string
	Got  string
}

func (e *FieldError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("field %q: %v: want %s, got %s", e.Field, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsUnknownField reports whether err is an unknown field error.
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

// IsTypeMismatch reports whether err is a type mismatch error.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}
