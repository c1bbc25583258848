package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no plugin is registered under a name
	ErrNotFound = errors.New("report plugin not found")

	// ErrInvalidRequest is returned for malformed time ranges or arguments
	ErrInvalidRequest = errors.New("invalid report request")

	// ErrUpstreamRead is returned when the audit log or a stats collaborator fails
	ErrUpstreamRead = errors.New("upstream read failed")

	// ErrDuplicateName is returned when registering a name twice
	ErrDuplicateName = errors.New("report plugin already registered")
)

// DuplicateNameError names the conflicting registration
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateName, e.Name)
}

func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

// UpstreamError wraps a collaborator failure
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstreamRead, e.Source, e.Err)
}

// Is matches ErrUpstreamRead
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamRead
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(source string, err error) error {
	return &UpstreamError{Source: source, Err: err}
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var errNoSource = errors.New("source not configured")
