package models

import "errors"

// Failure classes of the reconciliation core. All of them are absorbed
// locally; callers use errors.Is to pick the fallback.
var (
	// ErrAdapterUnavailable means no media-control transport is reachable.
	ErrAdapterUnavailable = errors.New("media-control transport unavailable")
	// ErrPlayerNotFound means the requested identity is not on the bus.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrReadFailure means the bound player's state could not be read.
	ErrReadFailure = errors.New("player state unreadable")
	// ErrFetchFailure means album art could not be downloaded or decoded.
	ErrFetchFailure = errors.New("album art unavailable")
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error constructors.
var (
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: "NOT_FOUND", Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: "BAD_REQUEST", Message: msg, Status: 400}
	}
	ErrInternal = func(msg string) *AppError {
		return &AppError{Code: "INTERNAL", Message: msg, Status: 500}
	}
	ErrUnavailable = func(msg string) *AppError {
		return &AppError{Code: "UNAVAILABLE", Message: msg, Status: 503}
	}
)
