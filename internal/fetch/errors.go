package fetch

import (
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// Marker errors for the closed failure taxonomy. Callers classify with
// errors.Is. Only transport and parse failures are ever retried; an HTTP
// status or schema validation failure is deterministic for a given response.
var (
	ErrTransport  = crerr.New("upstream transport failure")
	ErrHTTPStatus = crerr.New("upstream returned non-success status")
	ErrParse      = crerr.New("upstream body is not valid json")
	ErrValidation = crerr.New("upstream body failed schema validation")
	ErrTimeout    = crerr.New("fetch budget elapsed")
	ErrNotFound   = crerr.New("resource not found")
)

func IsRetryable(err error) bool {
	return crerr.Is(err, ErrTransport) || crerr.Is(err, ErrParse)
}

// StatusError carries the numeric status of a non-success response.
type StatusError struct {
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Reason)
}

func NewStatusError(status int, reason string) error {
	return crerr.Mark(&StatusError{Status: status, Reason: strings.TrimSpace(reason)}, ErrHTTPStatus)
}

// StatusCode extracts the HTTP status from a marked status error.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if crerr.As(err, &statusErr) {
		return statusErr.Status, true
	}
	return 0, false
}

// NotFoundError reports an absent entity, whether the absence was detected
// via an upstream 404, an empty collection, or an exhausted pagination walk.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) error {
	return crerr.Mark(&NotFoundError{Kind: kind, ID: id}, ErrNotFound)
}

// Violation is one field-level schema constraint failure.
type Violation struct {
	Field      string
	Constraint string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Constraint
}

// ValidationError aggregates the violations found while validating one
// entity payload.
type ValidationError struct {
	Entity     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func NewValidationError(entity string, violations ...Violation) error {
	return crerr.Mark(&ValidationError{Entity: entity, Violations: violations}, ErrValidation)
}

// ValidationDetails returns the structured diagnostics from a marked
// validation error.
func ValidationDetails(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if crerr.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}
