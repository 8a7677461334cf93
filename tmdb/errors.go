package tmdb

import (
	"errors"
	"fmt"
)

// ErrFetchFailure is the single error kind reported by the client. It covers
// transport failures, non-success statuses and malformed bodies alike.
var ErrFetchFailure = errors.New("failed to fetch")

// APIError carries the status of a non-success TMDB response. It unwraps to
// ErrFetchFailure so callers never need to distinguish it.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns ErrFetchFailure
func (e *APIError) Unwrap() error {
	return ErrFetchFailure
}

// fetchFailure wraps err so that it matches ErrFetchFailure.
func fetchFailure(err error) error {
	if errors.Is(err, ErrFetchFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFetchFailure, err)
}
