// Package errors provides standardized error handling for the refinement pipeline.
package errors

import (
	"fmt"
)

// ErrorCode represents a standardized error code for the refinement pipeline.
type ErrorCode string

const (
	// Input errors
	RFN_INPUT_READ    ErrorCode = "RFN_INPUT_READ"    // Input file could not be read
	RFN_INPUT_DECODE  ErrorCode = "RFN_INPUT_DECODE"  // Input is not parseable JSON
	RFN_SCHEMA_REJECT ErrorCode = "RFN_SCHEMA_REJECT" // Structural validation failed

	// Pipeline errors
	RFN_EXTRACT  ErrorCode = "RFN_EXTRACT"  // Extraction failed at document level
	RFN_ASSEMBLE ErrorCode = "RFN_ASSEMBLE" // Record assembly failed

	// Collaborator errors
	RFN_STORAGE  ErrorCode = "RFN_STORAGE"  // Persistence failed
	RFN_CONFLICT ErrorCode = "RFN_CONFLICT" // Record set already persisted
	RFN_PUBLISH  ErrorCode = "RFN_PUBLISH"  // Artifact publication failed
	RFN_ENCRYPT  ErrorCode = "RFN_ENCRYPT"  // Artifact encryption failed

	// Server errors
	RFN_INTERNAL ErrorCode = "RFN_INTERNAL" // Internal pipeline error
)

// Error represents a standardized pipeline error. CorrelationID ties the
// error back to the document that triggered it in logs and events.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	Cause         error       `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
	}
}

// Wrap creates a new Error that carries an underlying cause.
func Wrap(code ErrorCode, message string, correlationID string, cause error) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Cause:         cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	case e.Details != nil:
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}
