package catalog

import "errors"

// Sentinel errors shared across the catalog core. Callers match them with
// errors.Is; wrapping sites add path and operation context via fmt.Errorf.
var (
	// ErrInvalidArgument reports an empty or out-of-range required input.
	// It is returned before any filesystem or repository work begins.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIOFailure reports a directory that could not be created or
	// re-read while materializing an entity on disk.
	ErrIOFailure = errors.New("io failure")
)
