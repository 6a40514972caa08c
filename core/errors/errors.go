// Package errors provides the typed error taxonomy shared by the loader,
// the fetcher and the offline tools.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed data or a validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnresolved indicates no parasha owns a requested position
	ErrUnresolved = errors.New("unresolved position")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// NotFoundError reports a resource that could not be retrieved: a missing
// file, or an HTTP response outside the 2xx range.
type NotFoundError struct {
	Resource string // Kind of resource (e.g., "verse", "chapter", "books")
	ID       string // Identifier or relative path of the resource
	Status   int    // HTTP status, 0 when not fetched over HTTP
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found", e.Resource)
	if e.ID != "" {
		msg = fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// Is lets errors.Is(err, ErrNotFound) succeed even when Err carries a more
// specific cause.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError represents malformed JSON or another decoding failure.
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "reference")
	Path    string // Resource path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ResolutionError reports a (book, chapter, verse) position that no parasha
// owns.
type ResolutionError struct {
	Book    string
	Chapter int
	Verse   int // 0 when no verse was given
	Reason  string
}

func (e *ResolutionError) Error() string {
	pos := fmt.Sprintf("%s %d", e.Book, e.Chapter)
	if e.Verse > 0 {
		pos = fmt.Sprintf("%s %d:%d", e.Book, e.Chapter, e.Verse)
	}
	if e.Reason != "" {
		return fmt.Sprintf("parasha not found for %s: %s", pos, e.Reason)
	}
	return fmt.Sprintf("parasha not found for %s", pos)
}

func (e *ResolutionError) Unwrap() error {
	return ErrUnresolved
}

// ValidationError represents a data or input validation failure with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewResolution creates a ResolutionError
func NewResolution(book string, chapter, verse int, reason string) *ResolutionError {
	return &ResolutionError{
		Book:    book,
		Chapter: chapter,
		Verse:   verse,
		Reason:  reason,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// IsNotFound reports whether err is (or wraps) a not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnresolved reports whether err is (or wraps) a ResolutionError.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolved)
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// New wraps errors.New for convenience
func New(text string) error {
	return errors.New(text)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join for convenience
func Join(errs ...error) error {
	return errors.Join(errs...)
}
