package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure
type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "PERMISSION_DENIED"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindInsufficientBalance ErrorKind = "INSUFFICIENT_BALANCE"
	KindNotYetAvailable     ErrorKind = "NOT_YET_AVAILABLE"
	KindArithmeticOverflow  ErrorKind = "ARITHMETIC_OVERFLOW"
)

// Sentinels for errors.Is matching against any DomainError of the same kind
var (
	ErrPermissionDenied    = &DomainError{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrInvalidTransition   = &DomainError{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrInsufficientBalance = &DomainError{Kind: KindInsufficientBalance, Message: "insufficient balance"}
	ErrNotYetAvailable     = &DomainError{Kind: KindNotYetAvailable, Message: "not yet available"}
	ErrArithmeticOverflow  = &DomainError{Kind: KindArithmeticOverflow, Message: "arithmetic overflow"}
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func NewPermissionDeniedError(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindPermissionDenied, fmt.Sprintf(format, args...))
}

func NewInvalidTransitionError(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindInvalidTransition, fmt.Sprintf(format, args...))
}

func NewInsufficientBalanceError(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindInsufficientBalance, fmt.Sprintf(format, args...))
}

func NewNotYetAvailableError(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindNotYetAvailable, fmt.Sprintf(format, args...))
}

func NewArithmeticOverflowError(format string, args ...interface{}) *DomainError {
	return NewDomainError(KindArithmeticOverflow, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first DomainError in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
