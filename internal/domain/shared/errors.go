package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is matches sentinels even when the message differs.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes produced by the lifecycle engine
const (
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInvalidPlanReference   = "INVALID_PLAN_REFERENCE"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists          = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput           = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict    = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized           = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden              = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Transition not allowed from the current state")
	ErrInvalidPlanReference   = NewDomainError(CodeInvalidPlanReference, "Referenced plan does not exist")
)

// NewInvalidStateTransition describes a rejected transition of an entity
func NewInvalidStateTransition(entity, from, action string) *DomainError {
	return NewDomainError(CodeInvalidStateTransition,
		fmt.Sprintf("cannot %s %s in status %s", action, entity, from))
}
