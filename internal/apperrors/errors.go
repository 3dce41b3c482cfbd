// Package apperrors collects the error sentinels shared across packages
// (spec.md §7) that do not belong to any single parser: job-construction
// guards, underlying storage failures, and cached-bitmap decode corruption.
// Header parsing's own three kinds (ErrNotAMapFile, ErrUnsupportedVersion,
// ErrMalformedInput) live in internal/mapfile, next to the reader that
// returns them; callers use errors.Is against either set the same way.
package apperrors

import "errors"

var (
	// ErrInvalidArgument is returned when a Job is constructed with a
	// non-positive text scale or an empty map file path.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIOFailure wraps an underlying storage failure reading or writing a
	// tile cache scratch file.
	ErrIOFailure = errors.New("io failure")
	// ErrCacheCorruption is returned when a cached tile's bytes fail to
	// decode back into an image.
	ErrCacheCorruption = errors.New("cache corruption")
)
