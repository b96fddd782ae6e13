package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeDecoding        ErrorType = "DECODING"
	ErrorTypeNetwork         ErrorType = "NETWORK"
	ErrorTypeTimeout         ErrorType = "TIMEOUT"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeNoCachedProfile ErrorType = "NO_CACHED_PROFILE"
	ErrorTypeInternal        ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewDecoding creates a decoding error for corrupt cache entries
func NewDecoding(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeDecoding,
		Message: message,
		Err:     err,
	}
}

// NewNetwork creates a network error for unreachable remote stores
func NewNetwork(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Message: message,
		Err:     err,
	}
}

// NewTimeout creates a timeout error for remote calls that exceeded their deadline
func NewTimeout(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// NewConflict creates a conflict error, e.g. an insert hitting an existing row
func NewConflict(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Err:     err,
	}
}

// NewNoCachedProfile creates the error returned when an update is attempted
// without a prior cached baseline for the user.
func NewNoCachedProfile(userID string) error {
	return &AppError{
		Type:    ErrorTypeNoCachedProfile,
		Message: fmt.Sprintf("no cached profile for user %s", userID),
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsDecoding checks if an error is a decoding error
func IsDecoding(err error) bool { return isType(err, ErrorTypeDecoding) }

// IsNetwork checks if an error is a network error
func IsNetwork(err error) bool { return isType(err, ErrorTypeNetwork) }

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool { return isType(err, ErrorTypeTimeout) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return isType(err, ErrorTypeConflict) }

// IsNoCachedProfile checks if an error is a missing-baseline error
func IsNoCachedProfile(err error) bool { return isType(err, ErrorTypeNoCachedProfile) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return isType(err, ErrorTypeInternal) }

// IsOffline reports whether an error indicates the remote store is
// unreachable or too slow, i.e. the caller should fall back to the
// offline path rather than surface a hard failure.
func IsOffline(err error) bool {
	return IsNetwork(err) || IsTimeout(err)
}
