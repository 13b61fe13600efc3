package port

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStaleState is returned when an optimistic state update loses the
	// race: the worker's stored state no longer matches the expected origin.
	ErrStaleState = errors.New("worker state changed concurrently")
)
