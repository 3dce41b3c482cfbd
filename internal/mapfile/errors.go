package mapfile

import "errors"

// Error kinds returned by header parsing (spec.md §7). Callers should use
// errors.Is against these sentinels; all wrapping preserves them via %w.
var (
	// ErrNotAMapFile is returned when the magic byte prefix does not match.
	ErrNotAMapFile = errors.New("mapfile: not a map file")
	// ErrUnsupportedVersion is returned when the file version is not one
	// this reader recognizes.
	ErrUnsupportedVersion = errors.New("mapfile: unsupported file version")
	// ErrMalformedInput covers every size/range validation failure in the
	// header prelude (declared file size mismatch, out-of-range bounding
	// box, negative lengths, and so on).
	ErrMalformedInput = errors.New("mapfile: malformed input")
)
