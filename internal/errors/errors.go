package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitual/internal/logger"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is
	ErrNotFound = stderrors.New("not found")
	// ErrStorage matches any StorageError via errors.Is
	ErrStorage = stderrors.New("storage failure")
	// ErrValidation matches any ValidationError via errors.Is
	ErrValidation = stderrors.New("validation failed")
)

// NotFoundError reports a habit, log, or stats record that is absent when required
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for the given resource kind and identifier
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// StorageError reports a failed call into the underlying store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage wraps err as a StorageError for op. A nil err yields nil, and errors that
// already carry a domain kind are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || IsStorage(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidationError reports rejected user input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a ValidationError for field
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool   { return stderrors.Is(err, ErrNotFound) }
func IsStorage(err error) bool    { return stderrors.Is(err, ErrStorage) }
func IsValidation(err error) bool { return stderrors.Is(err, ErrValidation) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
