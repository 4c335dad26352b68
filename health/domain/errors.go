package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput is returned when an input record is missing required
	// fields or carries values outside their domain.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable is returned when a classification backend
	// could not be reached or answered with a non-2xx status.
	ErrBackendUnavailable = errors.New("classification backend unavailable")

	// ErrMalformedResponse is returned when a backend answered with
	// output that could not be parsed into a classification.
	ErrMalformedResponse = errors.New("malformed backend response")
)
