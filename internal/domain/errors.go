// Package domain holds the error kinds and models shared by the guest assistant packages.
package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies a DomainError.
type ErrorType string

const (
	// ErrorTypeConfig marks missing or invalid deployment settings. Not retryable.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeUpstream marks a failed or unparseable call to a remote collaborator.
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeValidation marks a malformed inbound request.
	ErrorTypeValidation ErrorType = "validation"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// ConfigurationError reports required settings that are absent or invalid.
func ConfigurationError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

// UpstreamFetchError reports a remote dataset or extractor call that failed.
func UpstreamFetchError(message string, err error) *DomainError {
	return NewError(ErrorTypeUpstream, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// IsConfiguration reports whether err carries a configuration error anywhere in its chain.
func IsConfiguration(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsUpstream reports whether err carries an upstream fetch error anywhere in its chain.
func IsUpstream(err error) bool {
	return hasType(err, ErrorTypeUpstream)
}

func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

func hasType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
