package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These classify every failure the aggregates can produce and map to HTTP
// status codes at the handler layer.
const (
	EINVALID    = "invalid"             // 400 - construction-time validation failure
	ETRANSITION = "invalid_transition"  // 409 - illegal edge in a status graph
	ESTATE      = "invalid_state"       // 409 - operation forbidden in current state
	EINVARIANT  = "invariant_violation" // 422 - operation would break a standing invariant
	ENOTFOUND   = "not_found"           // 404 - referenced entity does not exist
	ECONFLICT   = "conflict"            // 409 - concurrent update conflict (persistence layer)
	EINTERNAL   = "internal"            // 500 - internal error (hide details)
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ETRANSITION).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "order.changeStatus").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any. Used for error wrapping.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	return "An internal error occurred. Please try again later."
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "order.create", "quantity must be positive")
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Preserves the underlying error for logging while providing structure.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Invalid creates a validation error.
// Example: domain.Invalid("orderitem.create", "Unit price cannot be negative")
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// InvalidTransition creates an error for an illegal status-graph edge.
// The message names both the current and the requested state.
func InvalidTransition(op, from, to string) error {
	return &Error{
		Code:    ETRANSITION,
		Op:      op,
		Message: fmt.Sprintf("Cannot change status from %s to %s", from, to),
	}
}

// InvalidState creates an error for an operation forbidden in the current state.
// Example: domain.InvalidState("orderitem.updateQuantity", "Cannot update quantity of non-pending item")
func InvalidState(op, message string) error {
	return &Error{
		Code:    ESTATE,
		Op:      op,
		Message: message,
	}
}

// InvariantViolation creates an error for an operation that would break a
// standing aggregate invariant.
func InvariantViolation(op, message string) error {
	return &Error{
		Code:    EINVARIANT,
		Op:      op,
		Message: message,
	}
}

// NotFound creates a not found error for a referenced entity.
// Example: domain.NotFound("order.updateItem", "order item", itemID.String())
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Conflict creates a conflict error. Used by the persistence layer when an
// optimistic-concurrency check fails.
func Conflict(op, message string) error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
