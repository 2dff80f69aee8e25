package domain

import "errors"

var (
	// ErrNotFound signals a missing item (source or candidate).
	ErrNotFound = errors.New("item not found")
	// ErrPreconditionFailed signals a recheck on an item that has not finished
	// initial processing (no semantic description yet).
	ErrPreconditionFailed = errors.New("item not yet processed")
	// ErrUpstreamUnavailable signals a failed embedding, index, or store call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidInput signals a request with a missing or malformed id/kind.
	ErrInvalidInput = errors.New("invalid input")
)
