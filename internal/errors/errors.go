// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInvalidComponent indicates a component failed validation
	TypeInvalidComponent Type = "INVALID_COMPONENT"

	// TypeInvalidDistribution indicates an unrecognised distribution name
	TypeInvalidDistribution Type = "INVALID_DISTRIBUTION"

	// TypeEmptyComponentSet indicates a budget with no components
	TypeEmptyComponentSet Type = "EMPTY_COMPONENT_SET"

	// TypeInvalidReference indicates a reference range that cannot be used
	TypeInvalidReference Type = "INVALID_REFERENCE"

	// TypeInput indicates a malformed request outside the budget itself
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Type.
// This lets errors.Is(err, errors.New(TypeNotFound, "")) match by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType checks if an error, or anything it wraps, is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := As(err); ok {
		return e.Type == t
	}
	return false
}

// TypeOf returns the Type of the first *Error in err's chain, or TypeInternal.
func TypeOf(err error) Type {
	if e, ok := As(err); ok {
		return e.Type
	}
	return TypeInternal
}

// IsBudgetInput reports whether err is one of the budget validation kinds.
func IsBudgetInput(err error) bool {
	switch TypeOf(err) {
	case TypeInvalidComponent, TypeInvalidDistribution, TypeEmptyComponentSet, TypeInvalidReference:
		return true
	}
	return false
}

// InvalidComponent creates an invalid component error
func InvalidComponent(format string, args ...interface{}) *Error {
	return Newf(TypeInvalidComponent, format, args...)
}

// InvalidDistribution creates an invalid distribution error
func InvalidDistribution(name string) *Error {
	return Newf(TypeInvalidDistribution, "unknown distribution %q (want Normal, Rectangular or TypeA)", name).
		WithContext("distribution", name)
}

// EmptyComponentSet creates an empty component set error
func EmptyComponentSet() *Error {
	return New(TypeEmptyComponentSet, "budget has no uncertainty components")
}

// InvalidReference creates an invalid reference error
func InvalidReference(format string, args ...interface{}) *Error {
	return Newf(TypeInvalidReference, format, args...)
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
