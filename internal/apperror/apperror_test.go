package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("grid", 7),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Invalid wraps ErrValidation",
			err:       Invalid([]FieldError{{Field: "name", Message: "is required"}}),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("region port", 9000),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Taken wraps ErrConflict",
			err:       Taken("user", "username", "dana"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Taken does NOT match ErrValidation",
			err:       Taken("user", "username", "dana"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("Not authenticated"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading region: %w", NotFound("region", 3)),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("grid", 7),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("Admin access required"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("grid", 42),
			wantMessage: "grid not found with id 42",
		},
		{
			name:        "NotFound accepts string keys",
			err:         NotFound("setting", "loginCustomization"),
			wantMessage: "setting not found with id loginCustomization",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("username", "Username already exists"),
			wantMessage: "Username already exists",
		},
		{
			name: "Invalid lists every field",
			err: Invalid([]FieldError{
				{Field: "name", Message: "name is required"},
				{Field: "adminEmail", Message: "adminEmail must be a valid email"},
			}),
			wantMessage: "Validation failed: name: name is required; adminEmail: adminEmail must be a valid email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("region", 1)
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if len(err.Errors) != 1 || err.Errors[0].Field != "email" {
		t.Errorf("Errors = %+v, want a single email entry", err.Errors)
	}
}
