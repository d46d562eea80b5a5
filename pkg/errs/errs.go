// Package errs provides the structured error envelope shared by the orchestrator and its adapters.
package errs

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Code identifies an error category.
type Code string

const (
	// CodeUnauthenticated indicates a missing or invalid credential.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeForbidden indicates the caller lacks the required role.
	CodeForbidden Code = "forbidden"
	// CodeValidation indicates invalid input or a failed precondition.
	CodeValidation Code = "validation"
	// CodeConflict indicates an invariant would be violated.
	CodeConflict Code = "conflict"
	// CodeNotFound indicates a missing resource.
	CodeNotFound Code = "not_found"
	// CodeUnavailable indicates a collaborator is unreachable or timed out.
	CodeUnavailable Code = "unavailable"
	// CodeProvider indicates a collaborator answered with an error.
	CodeProvider Code = "provider"
	// CodeInternal indicates an unexpected failure.
	CodeInternal Code = "internal"
)

// E captures structured error information.
type E struct {
	Component string
	Code      Code
	Field     string
	Message   string
	HTTP      int

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the component and code.
func New(component string, code Code, opts ...Option) *E {
	e := &E{
		Component: strings.TrimSpace(component),
		Code:      code,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithField names the offending input field.
func WithField(field string) Option {
	return func(e *E) {
		e.Field = strings.TrimSpace(field)
	}
}

// WithHTTP records the upstream HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	component := e.Component
	if component == "" {
		component = "unknown"
	}
	parts = append(parts, "component="+component)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}
	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Validation builds a validation error for a field.
func Validation(component, field, message string) *E {
	return New(component, CodeValidation, WithField(field), WithMessage(message))
}

// NotFound builds a not-found error.
func NotFound(component, message string) *E {
	return New(component, CodeNotFound, WithMessage(message))
}

// Conflict builds a conflict error.
func Conflict(component, message string) *E {
	return New(component, CodeConflict, WithMessage(message))
}

// Forbidden builds a forbidden error.
func Forbidden(component, message string) *E {
	return New(component, CodeForbidden, WithMessage(message))
}

// Internal wraps an unexpected failure.
func Internal(component string, cause error) *E {
	return New(component, CodeInternal, WithMessage("internal error"), WithCause(cause))
}

// As returns the outermost envelope in the chain.
func As(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first envelope in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return "internal error"
}

// HTTPStatus maps a code onto the status served to API callers.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
