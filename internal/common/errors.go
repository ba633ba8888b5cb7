package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Token lifecycle errors.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")

	ErrUserInactive = errors.New("user is inactive")

	// ErrUpstream is returned when a federated identity provider could not be
	// reached or answered with something unusable.
	ErrUpstream = errors.New("upstream provider failure")
)

// AuthenticationFailedError is returned when a request cannot be
// authenticated. Detail is the client-facing message.
type AuthenticationFailedError struct {
	Detail string
	Err    error
}

// AuthenticationFailed builds an *AuthenticationFailedError wrapping cause.
func AuthenticationFailed(detail string, cause error) error {
	return &AuthenticationFailedError{Detail: detail, Err: cause}
}

func (e *AuthenticationFailedError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *AuthenticationFailedError) Unwrap() error { return e.Err }

// NonFieldErrors is the ValidationError key for messages that are not bound
// to a single input field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends msg to the messages of field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
