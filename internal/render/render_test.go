package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tilestack/maprender/internal/depcache"
)

func TestStrokeRescale(t *testing.T) {
	assert.Equal(t, 1.0, StrokeRescale(12))
	assert.Equal(t, 1.0, StrokeRescale(5))
	assert.InDelta(t, 1.5, StrokeRescale(13), 1e-9)
	assert.InDelta(t, 2.25, StrokeRescale(14), 1e-9)
}

func TestWaySymbolPositions_StartMarginAndSpacing(t *testing.T) {
	line := [][2]float64{{0, 0}, {1000, 0}}
	positions := WaySymbolPositions(line, true)
	if assert.NotEmpty(t, positions) {
		assert.InDelta(t, 30, positions[0].X, 1e-9)
	}
	for _, p := range positions {
		assert.LessOrEqual(t, p.X, 1000-SymbolMargin+1e-9)
	}
}

func TestWaySymbolPositions_NoRepeatEmitsOne(t *testing.T) {
	line := [][2]float64{{0, 0}, {1000, 0}}
	positions := WaySymbolPositions(line, false)
	assert.Len(t, positions, 1)
}

func TestWaySymbolPositions_ShortLineEmitsNone(t *testing.T) {
	line := [][2]float64{{0, 0}, {10, 0}}
	positions := WaySymbolPositions(line, true)
	assert.Empty(t, positions)
}

func TestWaySymbolPositions_RotationMatchesDirection(t *testing.T) {
	line := [][2]float64{{0, 0}, {0, 1000}}
	positions := WaySymbolPositions(line, false)
	require := assert.New(t)
	require.NotEmpty(positions)
	require.InDelta(math.Pi/2, positions[0].Rotation, 1e-9)
}

func TestWayTextSegments_RejectsShortSegments(t *testing.T) {
	line := [][2]float64{{0, 0}, {5, 0}}
	segs := WayTextSegments(line, 50)
	assert.Empty(t, segs)
}

func TestWayTextSegments_AcceptsLongEnoughSegment(t *testing.T) {
	line := [][2]float64{{0, 0}, {100, 0}}
	segs := WayTextSegments(line, 50) // needs >= 60
	assert.NotEmpty(t, segs)
}

func TestContext_BucketsClampOutOfRangeIndices(t *testing.T) {
	ctx := NewContext(3)
	ctx.RenderArea(-1, 99, [][2]float64{{0, 0}}, "fill")
	idx := ctx.bucketIndex(-1, 99)
	assert.Len(t, ctx.buckets[idx], 1)
}

func TestContext_ResetClearsState(t *testing.T) {
	ctx := NewContext(2)
	ctx.RenderPointOfInterestCaption(depcache.PointText{Text: "x"})
	ctx.Reset()
	assert.Empty(t, ctx.poiLabels)
}
