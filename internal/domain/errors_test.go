package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Basic error",
			code:      ErrInvalidInput,
			message:   "Invalid vital reading",
			details:   "glucose must be a number",
			requestID: "req-123",
		},
		{
			name:      "Library error",
			code:      ErrLibraryLoad,
			message:   "Template library unavailable",
			details:   "advice.json not found",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("gender", "must be male or female", "other")

	if err.Field != "gender" {
		t.Errorf("Expected field gender, got %s", err.Field)
	}
	expected := "validation error for field 'gender': must be male or female"
	if err.Error() != expected {
		t.Errorf("Expected error string %q, got %q", expected, err.Error())
	}
}

func TestLoadError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		err := NewLoadError("advice.json", "reading file", os.ErrNotExist)

		if !errors.Is(err, os.ErrNotExist) {
			t.Error("LoadError should unwrap to its cause")
		}
		if !IsLoadError(fmt.Errorf("assembling advice: %w", err)) {
			t.Error("IsLoadError should see through wrapping")
		}
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewLoadError("advice.json", "subject \"glucose\" is not a bucket", nil)
		expected := `loading template library "advice.json": subject "glucose" is not a bucket`
		if err.Error() != expected {
			t.Errorf("Expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("other errors", func(t *testing.T) {
		if IsLoadError(errors.New("boom")) {
			t.Error("plain errors are not load errors")
		}
	})
}
