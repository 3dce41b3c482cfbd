package render

import (
	"fmt"
	"math"

	"github.com/tilestack/maprender/internal/apperrors"
	"github.com/tilestack/maprender/internal/tilemath"
)

// Job is one render request (spec.md §4.5): a tile, a theme handle, and a
// text scale.
type Job struct {
	Tile        tilemath.TileKey
	MapFilePath string
	ThemeHandle string
	TextScale   float64
}

// NewJob constructs a validated Job (spec.md §7 InvalidArgument guard):
// mapFilePath must be non-empty and textScale must be positive.
func NewJob(tile tilemath.TileKey, mapFilePath, themeHandle string, textScale float64) (Job, error) {
	if mapFilePath == "" {
		return Job{}, fmt.Errorf("render: empty map file path: %w", apperrors.ErrInvalidArgument)
	}
	if textScale <= 0 {
		return Job{}, fmt.Errorf("render: text scale %v must be positive: %w", textScale, apperrors.ErrInvalidArgument)
	}
	return Job{Tile: tile, MapFilePath: mapFilePath, ThemeHandle: themeHandle, TextScale: textScale}, nil
}

// Key is the cache-equality key for a Job: (tile, mapFilePath, textScale),
// with textScale compared by raw bit pattern rather than float equality
// (spec.md §4.5 "Job equality").
type Key struct {
	Tile        tilemath.TileKey
	MapFilePath string
	TextScaleBits uint64
}

// Key derives this job's cache key.
func (j Job) Key() Key {
	return Key{
		Tile:          j.Tile,
		MapFilePath:   j.MapFilePath,
		TextScaleBits: math.Float64bits(j.TextScale),
	}
}
