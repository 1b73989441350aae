package registry

import "errors"

var (
	// ErrNotFound is returned by lookups that find no matching allocation.
	ErrNotFound = errors.New("registry: allocation not found")

	// ErrNoOverlap is returned when a window query finds past records at
	// an address but none overlap the requested window.
	ErrNoOverlap = errors.New("registry: no past record overlaps window")
)
