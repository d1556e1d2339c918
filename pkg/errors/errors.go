package apperrors

import "fmt"

// ValidationError covers missing or blank required fields. Recoverable:
// the user corrects the input and resubmits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError means the referenced entity no longer exists.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InsufficientStockError means a take requested more than is available.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("requested %d but only %d available", e.Requested, e.Available)
}

// AlreadyHeldError means a unit item is held by someone else.
type AlreadyHeldError struct {
	Holder string
}

func (e *AlreadyHeldError) Error() string {
	if e.Holder == "" {
		return "item is already held"
	}
	return fmt.Sprintf("item is already held by %s", e.Holder)
}

// AccessDeniedError means the external identity is not allow-listed.
// Terminal for the session.
type AccessDeniedError struct {
	Identity string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("identity %s is not allowed", e.Identity)
}

// UpstreamError wraps a failure reported by an external service. The
// upstream description is surfaced verbatim when available.
type UpstreamError struct {
	Service     string
	Description string
}

func (e *UpstreamError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s request failed", e.Service)
	}
	return fmt.Sprintf("%s error: %s", e.Service, e.Description)
}
