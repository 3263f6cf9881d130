package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: "Quantity must be positive",
			},
			expected: "Quantity must be positive",
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "orderitem.create",
				Message: "Quantity must be positive",
			},
			expected: "orderitem.create: Quantity must be positive",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "order.save",
				Message: "failed to save order",
				Err:     errors.New("connection refused"),
			},
			expected: "order.save: failed to save order: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save order",
				Err:     errors.New("connection refused"),
			},
			expected: "failed to save order: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: Invalid("op", "bad input"), expected: EINVALID},
		{name: "transition error", err: InvalidTransition("op", "CANCELLED", "ACTIVE"), expected: ETRANSITION},
		{name: "state error", err: InvalidState("op", "not pending"), expected: ESTATE},
		{name: "invariant error", err: InvariantViolation("op", "last item"), expected: EINVARIANT},
		{name: "not found error", err: NotFound("op", "order item", "abc"), expected: ENOTFOUND},
		{name: "wrapped domain error", err: fmt.Errorf("context: %w", Invalid("op", "bad")), expected: EINVALID},
		{name: "plain error", err: errors.New("boom"), expected: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInvalidTransition_Message(t *testing.T) {
	err := InvalidTransition("subscription.changeStatus", "CANCELLED", "ACTIVE")

	want := "subscription.changeStatus: Cannot change status from CANCELLED to ACTIVE"
	if err.Error() != want {
		t.Errorf("InvalidTransition() = %q, want %q", err.Error(), want)
	}
	if !IsCode(err, ETRANSITION) {
		t.Errorf("IsCode(err, ETRANSITION) = false, want true")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, EINTERNAL, "op", "msg") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	underlying := errors.New("db down")
	err := WrapError(underlying, EINTERNAL, "order.save", "failed to save")

	if !errors.Is(err, underlying) {
		t.Error("wrapped error should match errors.Is")
	}
	if ErrorCode(err) != EINTERNAL {
		t.Errorf("ErrorCode() = %q, want %q", ErrorCode(err), EINTERNAL)
	}
	if ErrorMessage(err) != "An internal error occurred. Please try again later." {
		t.Errorf("internal error message should be generic, got %q", ErrorMessage(err))
	}
}
