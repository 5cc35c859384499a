package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks network and HTTP failures talking to a backend.
	ErrTransport = errors.New("backend transport failure")

	// ErrMalformed marks a record whose shape could not be normalized.
	ErrMalformed = errors.New("malformed record")

	// ErrNotFound is returned by single-assignment lookups.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBackend is returned when no adapter is registered under a flavor.
	ErrUnknownBackend = errors.New("unknown backend")
)

// TransportError describes a failed backend call.
type TransportError struct {
	Backend    string
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", e.Backend, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NotFoundError names the assignment a lookup failed to find.
type NotFoundError struct {
	CourseID     string
	AssignmentID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("assignment %s in course %s not found", e.AssignmentID, e.CourseID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
