// Package domain contains the harvesting data model and its error kinds.
// Domain errors represent harvest-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/CLI exit codes by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested snapshot or category does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates run input or configuration failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrNetwork indicates a page could not be fetched: timeout, connection
	// failure or a non-success status. Recovered at the category boundary.
	ErrNetwork = errors.New("network error")

	// ErrMalformedPage indicates the pagination indicator was absent or
	// unparsable. Recovered by assuming a single page.
	ErrMalformedPage = errors.New("malformed page")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// NetworkError describes a failed page fetch.
type NetworkError struct {
	Category   string
	Page       int
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("fetching %s page %d", e.Category, e.Page)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}

	return []error{ErrNetwork, e.Err}
}

// NewNetworkError creates a network error for one page of a category.
func NewNetworkError(category string, page int, url string, statusCode int, cause error) error {
	return &NetworkError{
		Category:   category,
		Page:       page,
		URL:        url,
		StatusCode: statusCode,
		Err:        cause,
	}
}

// MalformedPageError describes a page whose pagination indicator could not be read.
type MalformedPageError struct {
	Reason string
}

// Error implements the error interface.
func (e *MalformedPageError) Error() string {
	return "malformed page: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *MalformedPageError) Unwrap() error {
	return ErrMalformedPage
}

// NewMalformedPageError creates a malformed page error.
func NewMalformedPageError(reason string) error {
	return &MalformedPageError{Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsNetwork checks if an error is a page fetch failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsMalformedPage checks if an error is a malformed page error.
func IsMalformedPage(err error) bool {
	return errors.Is(err, ErrMalformedPage)
}
