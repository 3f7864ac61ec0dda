package thread

import (
	"errors"
	"fmt"
)

// Sentinel errors for extraction failures.
var (
	ErrMissingIdentifier = errors.New("could not find thread id")
	ErrParse             = errors.New("parse error")
	ErrExport            = errors.New("export error")

	errMissing = errors.New("missing")
)

// HTTPError is returned when the thread endpoint answers with a non-2xx status.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d from %s", e.Status, e.URL)
}

// ParseError wraps ErrParse with the field that could not be decoded.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrParse, e.Field)
	}
	return fmt.Sprintf("%s: %s: %v", ErrParse, e.Field, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

func parseErr(field string, err error) *ParseError {
	return &ParseError{Field: field, Err: err}
}

// ExportError wraps a saver failure.
type ExportError struct {
	Filename string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExport, e.Filename, e.Err)
}

func (e *ExportError) Unwrap() []error { return []error{ErrExport, e.Err} }

// Exit codes for command wrappers.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitMissingIdentifier = 2
)

// ExitCode maps an extraction error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrMissingIdentifier):
		return ExitMissingIdentifier
	default:
		return ExitFailure
	}
}
