package refcerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")

	// ErrUnsupportedFormat indicates the base document has an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFilesystem indicates an I/O failure.
	ErrFilesystem = errors.New("filesystem error")

	// ErrMalformedDocument indicates a document could not be parsed.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidFragmentName indicates a fragment name could not be derived.
	ErrInvalidFragmentName = errors.New("invalid fragment name")

	// ErrBundle indicates the bundler failed.
	ErrBundle = errors.New("bundle error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a circular $ref was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrPathTraversal indicates a $ref pointed outside the allowed directories.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")
)

// ConfigError represents invalid configuration or input options.
type ConfigError struct {
	// Option is the name of the offending option (e.g. "input-file", "ref-dirs")
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// UnsupportedFormatError is returned when a base document's extension
// matches neither the YAML nor the JSON pipeline.
type UnsupportedFormatError struct {
	// Path is the offending file
	Path string
}

// Error returns a human-readable error message.
func (e *UnsupportedFormatError) Error() string {
	return "unsupported format: unknown file extension for base spec file " + e.Path
}

// Is reports whether target matches this error type.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// FilesystemError wraps an I/O failure with the operation and path involved.
type FilesystemError struct {
	// Op is the operation that failed ("read", "write", "list", ...)
	Op string
	// Path is the file or directory involved
	Path string
	// Cause is the underlying error
	Cause error
}

// Error returns a human-readable error message.
func (e *FilesystemError) Error() string {
	msg := "filesystem error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FilesystemError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}

// ParseError represents a failure to parse a document.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "malformed document"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// FragmentNameError is returned when a fragment file name carries none of
// the recognised extensions.
type FragmentNameError struct {
	// FileName is the offending fragment file name
	FileName string
}

// Error returns a human-readable error message.
func (e *FragmentNameError) Error() string {
	return "invalid fragment name: " + e.FileName
}

// Is reports whether target matches this error type.
func (e *FragmentNameError) Is(target error) bool {
	return target == ErrInvalidFragmentName
}

// BundleError wraps any failure of the bundling step.
type BundleError struct {
	// Path is the merged document that was being bundled
	Path string
	// Cause is the underlying error
	Cause error
}

// Error returns a human-readable error message.
func (e *BundleError) Error() string {
	msg := "bundle error"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *BundleError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *BundleError) Is(target error) bool {
	return target == ErrBundle
}

// ReferenceError represents a failure to resolve a $ref.
// This includes missing targets, circular references, and path traversal attempts.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// Source is the file the reference appeared in
	Source string
	// IsCircular is true if this error is due to a circular reference
	IsCircular bool
	// IsPathTraversal is true if this error is due to a path traversal attempt
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Source != "" {
		msg += " (in " + e.Source + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference or ErrPathTraversal
// when the corresponding flag is set.
func (e *ReferenceError) Is(target error) bool {
	switch target {
	case ErrReference:
		return true
	case ErrCircularReference:
		return e.IsCircular
	case ErrPathTraversal:
		return e.IsPathTraversal
	}
	return false
}

// ResourceLimitError represents a resource exhaustion condition.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}
