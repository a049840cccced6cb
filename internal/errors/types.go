// Package errors defines the structured error type used across pages.
//
// Every failure of the template pipeline is a *PagesError carrying a Type from
// the taxonomy below and enough context (template, stream, file) to name the
// offending input in a human-readable message.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeConflict covers duplicate stream ids with differing
	// definitions and duplicate feature names.
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeContract covers templates that break the module contract.
	ErrorTypeContract ErrorType = "contract"
	// ErrorTypeLimit covers bundle size caps.
	ErrorTypeLimit    ErrorType = "limit"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// PagesError is a structured error type with context.
type PagesError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Template string
	Stream   string
	FilePath string
}

// Error implements the error interface.
func (e *PagesError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PagesError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PagesError) Is(target error) bool {
	var t *PagesError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithTemplate adds template context.
func (e *PagesError) WithTemplate(name string) *PagesError {
	e.Template = name

	return e
}

// WithStream adds stream context.
func (e *PagesError) WithStream(id string) *PagesError {
	e.Stream = id

	return e
}

// WithFile adds file context.
func (e *PagesError) WithFile(path string) *PagesError {
	e.FilePath = path

	return e
}

// Error creation functions

// NewConflictError creates a configuration conflict error.
func NewConflictError(code, message string) *PagesError {
	return &PagesError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewContractError creates a template contract violation.
func NewContractError(code, message string) *PagesError {
	return &PagesError{
		Type:    ErrorTypeContract,
		Code:    code,
		Message: message,
	}
}

// NewLimitError creates a resource limit error.
func NewLimitError(code, message string) *PagesError {
	return &PagesError{
		Type:    ErrorTypeLimit,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PagesError {
	return &PagesError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func isType(err error, t ErrorType) bool {
	var pe *PagesError
	if errors.As(err, &pe) {
		return pe.Type == t
	}

	return false
}

// IsConflict checks if an error is a configuration conflict.
func IsConflict(err error) bool { return isType(err, ErrorTypeConflict) }

// IsContract checks if an error is a template contract violation.
func IsContract(err error) bool { return isType(err, ErrorTypeContract) }

// IsLimit checks if an error is a resource limit error.
func IsLimit(err error) bool { return isType(err, ErrorTypeLimit) }

// IsIO checks if an error is an I/O error.
func IsIO(err error) bool { return isType(err, ErrorTypeIO) }

// IsConfig checks if an error comes from loading the configuration.
func IsConfig(err error) bool { return isType(err, ErrorTypeConfig) }

// Common error codes.
const (
	ErrCodeStreamConflict       = "ERR_STREAM_CONFLICT"
	ErrCodeDuplicateFeature     = "ERR_DUPLICATE_FEATURE"
	ErrCodeInvalidPath          = "ERR_INVALID_PATH"
	ErrCodeMissingRender        = "ERR_MISSING_RENDER"
	ErrCodeMissingGetPath       = "ERR_MISSING_GET_PATH"
	ErrCodeTemplateParse        = "ERR_TEMPLATE_PARSE"
	ErrCodeFeatureNotFound      = "ERR_FEATURE_NOT_FOUND"
	ErrCodeFileTooLarge         = "ERR_FILE_TOO_LARGE"
	ErrCodeBundleTooLarge       = "ERR_BUNDLE_TOO_LARGE"
	ErrCodeFileNotFound         = "ERR_FILE_NOT_FOUND"
	ErrCodeReadFailed           = "ERR_READ_FAILED"
	ErrCodeWriteFailed          = "ERR_WRITE_FAILED"
	ErrCodeInvalidJSON          = "ERR_INVALID_JSON"
	ErrCodeConfigInvalid        = "ERR_CONFIG_INVALID"
	ErrCodeMissingDefaultExport = "ERR_MISSING_DEFAULT_EXPORT"
	ErrCodeRenderFailed         = "ERR_RENDER_FAILED"
)

// Helper functions for common errors

// ErrStreamConflict reports two templates declaring different streams with one id.
func ErrStreamConflict(streamID string) *PagesError {
	return NewConflictError(
		ErrCodeStreamConflict,
		"Conflicting configurations found for stream ID: "+streamID,
	).WithStream(streamID)
}

// ErrDuplicateFeature reports two templates sharing a feature name.
func ErrDuplicateFeature(name string) *PagesError {
	return NewConflictError(
		ErrCodeDuplicateFeature,
		fmt.Sprintf("Templates must have unique feature names. Found multiple modules with %q", name),
	).WithTemplate(name)
}

// ErrInvalidPath reports a template whose getPath produced no path.
func ErrInvalidPath(template string) *PagesError {
	return NewContractError(
		ErrCodeInvalidPath,
		fmt.Sprintf("getPath does not return a valid string in template '%s'", template),
	).WithTemplate(template)
}

// ErrMissingRender reports a template with neither render nor default export.
func ErrMissingRender(template string) *PagesError {
	return NewContractError(
		ErrCodeMissingRender,
		fmt.Sprintf("Cannot render html from template '%s'. Template is missing render function or default export.", template),
	).WithTemplate(template)
}

// ErrFeatureNotFound reports a feature absent from the manifest.
func ErrFeatureNotFound(feature string) *PagesError {
	return NewIOError(
		ErrCodeFeatureNotFound,
		"Could not find path for feature "+feature,
		nil,
	).WithTemplate(feature)
}
