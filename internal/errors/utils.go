package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a PagesError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *PagesError {
	if err == nil {
		return nil
	}

	// Keep the location context of an inner PagesError
	var pe *PagesError
	if errors.As(err, &pe) {
		return &PagesError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    pe,
			Template: pe.Template,
			Stream:   pe.Stream,
			FilePath: pe.FilePath,
		}
	}

	return &PagesError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *PagesError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapContract wraps an error raised by template code
func WrapContract(err error, code, message, template string) *PagesError {
	pe := Wrap(err, ErrorTypeContract, code, message)
	if pe != nil {
		pe.Template = template
	}
	return pe
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *PagesError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// GetErrorContext extracts context information from a PagesError
func GetErrorContext(err error) map[string]interface{} {
	var pe *PagesError
	if errors.As(err, &pe) {
		context := make(map[string]interface{})
		if pe.Template != "" {
			context["template"] = pe.Template
		}
		if pe.Stream != "" {
			context["stream"] = pe.Stream
		}
		if pe.FilePath != "" {
			context["file"] = pe.FilePath
		}
		context["type"] = string(pe.Type)
		context["code"] = pe.Code
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}
