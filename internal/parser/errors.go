package parser

import (
	"fmt"

	"salespipe/internal/domain"
)

// InvalidFormatError indicates the file content disagrees with its declared
// format: wrong signature bytes, an empty buffer, or a format version newer
// than the parser supports. It is distinct from ParseError so callers can
// tell "wrong file" apart from "broken file".
type InvalidFormatError struct {
	Format domain.FileFormat
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid %s file: %s", e.Format, e.Reason)
}

// ParseError indicates structural corruption discovered during extraction.
type ParseError struct {
	Format domain.FileFormat
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func invalidFormat(format domain.FileFormat, reason string, args ...any) error {
	return &InvalidFormatError{Format: format, Reason: fmt.Sprintf(reason, args...)}
}

func parseFailed(format domain.FileFormat, err error) error {
	return &ParseError{Format: format, Err: err}
}
