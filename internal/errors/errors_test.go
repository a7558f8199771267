package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestConfigError tests the ConfigError type and constructor.
func TestConfigError(t *testing.T) {
	t.Run("Error returns message", func(t *testing.T) {
		err := ConfigError{Message: "bad flag"}
		if err.Error() != "bad flag" {
			t.Errorf("Error() = %q, want %q", err.Error(), "bad flag")
		}
	})

	t.Run("NewConfigError formats message", func(t *testing.T) {
		err := NewConfigError("invalid value %d for %s", 42, "port")
		want := "invalid value 42 for port"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("errors.As identifies ConfigError", func(t *testing.T) {
		err := NewConfigError("oops")
		var ce ConfigError
		if !errors.As(err, &ce) {
			t.Error("errors.As should identify ConfigError")
		}
	})
}

// TestValidationError tests the ValidationError type.
func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		format   string
		args     []any
		contains []string
	}{
		{
			name:     "negative index",
			field:    "index",
			format:   "must be non-negative, got %d",
			args:     []any{-5},
			contains: []string{"index", "must be non-negative, got -5"},
		},
		{
			name:     "index above cap",
			field:    "index",
			format:   "must not exceed %d, got %d",
			args:     []any{40, 99},
			contains: []string{"index", "must not exceed 40, got 99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.format, tt.args...)
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Error() = %q, should contain %q", err.Error(), want)
				}
			}
			if !IsValidation(err) {
				t.Error("IsValidation should report true")
			}
		})
	}

	t.Run("IsValidation is false for other errors", func(t *testing.T) {
		if IsValidation(errors.New("plain")) {
			t.Error("IsValidation should report false for plain errors")
		}
		if IsValidation(nil) {
			t.Error("IsValidation should report false for nil")
		}
	})

	t.Run("IsValidation sees through wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", NewValidationError("index", "bad"))
		if !IsValidation(err) {
			t.Error("IsValidation should unwrap the chain")
		}
	})
}

// TestStoreError tests the StoreError type and helpers.
func TestStoreError(t *testing.T) {
	t.Run("Error names the store and cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewStoreError("cache", cause)
		if !strings.Contains(err.Error(), "cache") {
			t.Errorf("Error() = %q, should contain store name", err.Error())
		}
		if !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("Error() = %q, should contain cause", err.Error())
		}
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewStoreError("history", cause)
		if !errors.Is(err, cause) {
			t.Error("errors.Is should match the underlying cause")
		}
	})

	t.Run("nil cause yields nil error", func(t *testing.T) {
		if err := NewStoreError("history", nil); err != nil {
			t.Errorf("NewStoreError(nil) = %v, want nil", err)
		}
	})

	t.Run("IsStore identifies store failures", func(t *testing.T) {
		err := WrapError(NewStoreError("cache", errors.New("down")), "submit failed")
		if !IsStore(err) {
			t.Error("IsStore should see through wrapping")
		}
		if IsStore(errors.New("plain")) {
			t.Error("IsStore should report false for plain errors")
		}
	})
}

// TestComputeError tests the ComputeError type.
func TestComputeError(t *testing.T) {
	cause := errors.New("boom")
	err := ComputeError{Index: 17, Cause: cause}

	t.Run("Error includes index and cause", func(t *testing.T) {
		if !strings.Contains(err.Error(), "17") {
			t.Errorf("Error() = %q, should contain the index", err.Error())
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Errorf("Error() = %q, should contain the cause", err.Error())
		}
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		if !errors.Is(err, cause) {
			t.Error("errors.Is should match the underlying cause")
		}
	})
}

// TestTimeoutError tests the TimeoutError type.
func TestTimeoutError(t *testing.T) {
	err := TimeoutError{Operation: "shutdown", Limit: 5 * time.Second}
	if !strings.Contains(err.Error(), "shutdown") {
		t.Errorf("Error() = %q, should contain operation name", err.Error())
	}
	if !strings.Contains(err.Error(), "5s") {
		t.Errorf("Error() = %q, should contain the limit", err.Error())
	}
}

// TestWrapError tests error wrapping behavior.
func TestWrapError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if WrapError(nil, "context") != nil {
			t.Error("WrapError(nil) should return nil")
		}
	})

	t.Run("wrapped error preserves chain", func(t *testing.T) {
		base := errors.New("base")
		wrapped := WrapError(base, "while doing %s", "work")
		if !errors.Is(wrapped, base) {
			t.Error("wrapped error should match base via errors.Is")
		}
		if !strings.Contains(wrapped.Error(), "while doing work") {
			t.Errorf("Error() = %q, should contain context", wrapped.Error())
		}
	})
}

// TestIsContextError tests context error detection.
func TestIsContextError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped canceled", fmt.Errorf("op: %w", context.Canceled), true},
		{"plain error", errors.New("nope"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContextError(tt.err); got != tt.want {
				t.Errorf("IsContextError() = %v, want %v", got, tt.want)
			}
		})
	}
}
