package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      stderrors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "not found error",
			err:      NotFound("habit", "abc"),
			expected: `Error: habit "abc" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name       string
		err        error
		notFound   bool
		storage    bool
		validation bool
	}{
		{
			name:     "not found",
			err:      NotFound("log", "h1/2024-01-01"),
			notFound: true,
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("loading habit: %w", NotFound("habit", "h1")),
			notFound: true,
		},
		{
			name:    "storage",
			err:     Storage("upsert log", cause),
			storage: true,
		},
		{
			name:       "validation",
			err:        Validation("name", "cannot be empty"),
			validation: true,
		},
		{
			name: "plain error",
			err:  cause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := IsStorage(tt.err); got != tt.storage {
				t.Errorf("IsStorage() = %v, want %v", got, tt.storage)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
		})
	}
}

func TestStorage(t *testing.T) {
	if Storage("noop", nil) != nil {
		t.Error("Storage(nil) should be nil")
	}

	cause := stderrors.New("disk full")
	err := Storage("upsert stats", cause)
	if !stderrors.Is(err, cause) {
		t.Error("StorageError should unwrap to its cause")
	}

	nf := NotFound("habit", "h1")
	if Storage("get habit", nf) != nf {
		t.Error("Storage should pass NotFoundError through unchanged")
	}

	var se *StorageError
	if !stderrors.As(Storage("again", err), &se) || se.Op != "upsert stats" {
		t.Error("Storage should not double-wrap a StorageError")
	}
}
