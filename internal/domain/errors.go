package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// ExternalServiceError indicates a call to the dataset store (or the
	// document stats provider) failed or timed out. Nothing was written
	// locally when this is returned.
	ExternalServiceError struct {
		Message string
		Cause   error
	}

	// PersistenceError indicates a local store write failed
	PersistenceError struct {
		Message string
		Cause   error
	}

	// NoDeletableDatasetsError indicates a delete resolved a subtree with
	// no external datasets to remove
	NoDeletableDatasetsError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string            { return e.Message }
func (e *ValidationError) Error() string          { return e.Message }
func (e *NoDeletableDatasetsError) Error() string { return e.Message }

func (e *ExternalServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExternalServiceError) Unwrap() error { return e.Cause }
func (e *PersistenceError) Unwrap() error     { return e.Cause }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int            { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int          { return http.StatusBadRequest }
func (e *ExternalServiceError) StatusCode() int     { return http.StatusBadGateway }
func (e *PersistenceError) StatusCode() int         { return http.StatusInternalServerError }
func (e *NoDeletableDatasetsError) StatusCode() int { return http.StatusBadRequest }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrValidation  = errors.New("validation failed")
	ErrExternal    = errors.New("external service call failed")
	ErrPersistence = errors.New("local persistence failed")
	ErrNoDatasets  = errors.New("no deletable datasets")
)

// Is allows errors.Is() matching against the corresponding sentinels
func (e *NotFoundError) Is(target error) bool            { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool          { return target == ErrValidation }
func (e *ExternalServiceError) Is(target error) bool     { return target == ErrExternal }
func (e *PersistenceError) Is(target error) bool         { return target == ErrPersistence }
func (e *NoDeletableDatasetsError) Is(target error) bool { return target == ErrNoDatasets }

// CompensationError reports a local write failure for which a compensating
// action against the external dataset store was attempted. The primary error
// is always the persistence failure; if the compensation itself also failed,
// that secondary error is carried as context, never in place of the primary.
type CompensationError struct {
	Primary      error  // the persistence failure that triggered compensation
	Compensation error  // nil when the compensating call succeeded
	DatasetID    string // external dataset the compensation targeted
}

func (e *CompensationError) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("%v (compensating delete of dataset %s also failed: %v)",
			e.Primary, e.DatasetID, e.Compensation)
	}
	return fmt.Sprintf("%v (dataset %s removed by compensating delete)", e.Primary, e.DatasetID)
}

func (e *CompensationError) Unwrap() error { return e.Primary }

// StatusCode implements the HTTPError interface
func (e *CompensationError) StatusCode() int { return http.StatusInternalServerError }
