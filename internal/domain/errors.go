package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrDuplicateKey        = errors.New("record with this natural key already exists")
	ErrJobNotFound         = errors.New("import job not found")
	ErrCancelNotAllowed    = errors.New("job is in a terminal state and cannot be cancelled")
	ErrJobNotRetryable     = errors.New("job is not eligible for retry")
)

// ValidationError reports schema-level failures found before any record is
// persisted, e.g. a tabular file missing a required column group.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// NewValidationError creates a ValidationError from field-level messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}
