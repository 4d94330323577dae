package domain

import (
	"errors"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel() // Enable parallel execution
	err := NewValidationError("due_date", "must be an RFC 3339 timestamp", ErrValidation)

	expected := "validation failed for due_date: must be an RFC 3339 timestamp"
	if err.Error() != expected {
		t.Errorf("Expected message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrValidation) {
		t.Error("Expected ValidationError to wrap ErrValidation")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Error("Expected errors.As to match *ValidationError")
	}
	if validationErr.Field != "due_date" {
		t.Errorf("Expected field due_date, got %s", validationErr.Field)
	}
}
