package media

import "errors"

// Sentinel errors for the media package.
var (
	// ErrInvalidTransition is returned for state edges outside the machine.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotReleased is returned when moving to Available before release.
	ErrNotReleased = errors.New("release date is in the future")

	// ErrMagnetSet is returned when overwriting a magnet without force.
	ErrMagnetSet = errors.New("magnet has already been set")

	// ErrNoCandidates is returned when a candidate list yields no pick.
	ErrNoCandidates = errors.New("no selectable candidate")

	// ErrNotFound is returned when a library lookup misses.
	ErrNotFound = errors.New("media not found")
)
