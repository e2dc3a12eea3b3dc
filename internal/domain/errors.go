package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned by stores when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrAlreadyRegistered is returned when registering a username that is taken.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes one failed check on an input field.
type FieldError struct {
	Param string
	Msg   string
	Value any
}

// ValidationError lists every failed field check of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Param + ": " + f.Msg
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation reports whether err carries field level validation failures.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
