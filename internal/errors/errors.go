// Package errors provides the error taxonomy shared by the reconciliation
// core, the table sources and the outer HTTP/CLI shells. Callers check
// categories with errors.Is against the sentinels below.
package errors

import (
	"errors"
	"fmt"
)

// Is and As are re-exported so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Sentinel errors
var (
	// ErrInvalidConfiguration indicates that a comparison cannot run with the given parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat indicates a file or export format that is not handled
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ConfigError reports a rejected comparison parameter.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigError creates a new ConfigError
func NewConfigError(field string, value any, message string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message}
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// FormatError reports a file or export format that cannot be handled.
type FormatError struct {
	Path   string
	Format string
}

// Error implements the error interface
func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("unsupported format %q for %s", e.Format, e.Path)
	}
	return fmt.Sprintf("unsupported format %q", e.Format)
}

// Is implements errors.Is support
func (e *FormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// NewFormatError creates a new FormatError
func NewFormatError(path, format string) *FormatError {
	return &FormatError{Path: path, Format: format}
}

// ParseError wraps a failure to read tabular data from a source.
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}
