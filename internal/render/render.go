// Package render implements the tile renderer (spec.md §4.5, component C5):
// given a map file's geometry for one tile and a theme, it dispatches
// POIs/ways through the theme's rules, buckets the resulting draw commands
// by layer and level, runs the label placer, and draws everything in a
// fixed z-order onto a Canvas.
package render

import (
	"math"

	"github.com/tilestack/maprender/internal/depcache"
)

// Layers is the fixed number of draw layers every theme bucket array is
// sized for (spec.md §4.5).
const Layers = 11

// DistanceBetweenSymbols is the along-line spacing, in pixels, between
// repeated way symbols (spec.md §4.4 "Way symbol repetition").
const DistanceBetweenSymbols = 200.0

// SymbolMargin is the minimum distance, in pixels, a repeated way symbol
// keeps from either end of the polyline.
const SymbolMargin = 30.0

// DistanceBetweenWayNames is the along-line spacing, in pixels, between
// repeated way name placements.
const DistanceBetweenWayNames = 500.0

// StrokeRescale returns the factor strokes are scaled by at the given zoom
// level relative to the theme's base zoom of 12 (spec.md §4.5).
func StrokeRescale(zoom int) float64 {
	delta := zoom - 12
	if delta < 0 {
		delta = 0
	}
	return math.Pow(1.5, float64(delta))
}

// Paint is an opaque fill/stroke style handle, the same opaque-identity
// contract as depcache.Paint (spec.md §1: the graphics backend's paint
// representation is a collaborator, not something this package defines).
type Paint = depcache.Paint

// SymbolPlacement is one emitted position along a polyline for a repeated
// way symbol.
type SymbolPlacement struct {
	X, Y     float64
	Rotation float64 // atan2(dy, dx) in the direction of travel
}

// polylineLength returns the total length of a polyline and the per-segment
// lengths.
func polylineLength(coords [][2]float64) (total float64, segLens []float64) {
	segLens = make([]float64, 0, len(coords)-1)
	for i := 1; i < len(coords); i++ {
		dx := coords[i][0] - coords[i-1][0]
		dy := coords[i][1] - coords[i-1][1]
		l := math.Hypot(dx, dy)
		segLens = append(segLens, l)
		total += l
	}
	return total, segLens
}

// pointAtDistance walks coords and returns the point and direction angle at
// arc-length d from the start.
func pointAtDistance(coords [][2]float64, segLens []float64, d float64) (x, y, rotation float64, ok bool) {
	for i, l := range segLens {
		if d <= l || i == len(segLens)-1 {
			if l == 0 {
				continue
			}
			t := d / l
			if t > 1 {
				t = 1
			}
			a, b := coords[i], coords[i+1]
			x = a[0] + t*(b[0]-a[0])
			y = a[1] + t*(b[1]-a[1])
			rotation = math.Atan2(b[1]-a[1], b[0]-a[0])
			return x, y, rotation, true
		}
		d -= l
	}
	return 0, 0, 0, false
}

// WaySymbolPositions computes where a repeated bitmap symbol should be
// stamped along a polyline (spec.md §4.4 "Way symbol repetition"): starting
// 30px into the first segment, advancing DistanceBetweenSymbols=200px per
// emission, stopping at least 30px before the line ends. If repeat is
// false, a single symbol is emitted (or none, if the line is no longer than
// the start and stop margins together, 60px) and the function returns
// immediately.
func WaySymbolPositions(coords [][2]float64, repeat bool) []SymbolPlacement {
	if len(coords) < 2 {
		return nil
	}
	total, segLens := polylineLength(coords)
	if total <= 2*SymbolMargin {
		return nil
	}

	var out []SymbolPlacement
	for d := SymbolMargin; d <= total-SymbolMargin; d += DistanceBetweenSymbols {
		x, y, rot, ok := pointAtDistance(coords, segLens, d)
		if !ok {
			break
		}
		out = append(out, SymbolPlacement{X: x, Y: y, Rotation: rot})
		if !repeat {
			return out
		}
	}
	return out
}

// WayTextSegments returns the segments of a polyline eligible for a
// repeated way-name placement: evaluated every DistanceBetweenWayNames
// pixels, and only on segments at least textWidth+10 pixels long (spec.md
// §4.4 "Way names repeat...").
func WayTextSegments(coords [][2]float64, textWidth float64) []SymbolPlacement {
	if len(coords) < 2 {
		return nil
	}
	minLen := textWidth + 10
	_, segLens := polylineLength(coords)

	var out []SymbolPlacement
	var traveled float64
	nextAt := 0.0
	for i, l := range segLens {
		if l >= minLen && traveled+l >= nextAt {
			a, b := coords[i], coords[i+1]
			mx := (a[0] + b[0]) / 2
			my := (a[1] + b[1]) / 2
			out = append(out, SymbolPlacement{X: mx, Y: my, Rotation: math.Atan2(b[1]-a[1], b[0]-a[0])})
			nextAt = traveled + l + DistanceBetweenWayNames
		}
		traveled += l
	}
	return out
}
