package placer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilestack/maprender/internal/depcache"
	"github.com/tilestack/maprender/internal/tilemath"
)

const tileSize = 256.0

func freshCache() *depcache.Cache {
	return depcache.New(tileSize)
}

func centerTile() tilemath.TileKey {
	return tilemath.MakeTileKey(10, 5, 5)
}

func TestPlaceLabels_DropsFullyOutsideAreaLabel(t *testing.T) {
	c := freshCache()
	areaLabels := []depcache.PointText{
		{Text: "far", X: 1000, Y: 1000, Width: 20, Height: 10, NodeIndex: 1},
	}
	res := PlaceLabels(c, nil, areaLabels, nil, centerTile())
	assert.Len(t, res.AreaLabels, 0)
}

func TestPlaceLabels_CentersAreaLabelAnchor(t *testing.T) {
	c := freshCache()
	areaLabels := []depcache.PointText{
		{Text: "town", X: 100, Y: 100, Width: 40, Height: 10, NodeIndex: 1},
	}
	res := PlaceLabels(c, nil, areaLabels, nil, centerTile())
	require.Len(t, res.AreaLabels, 1)
	assert.Equal(t, 80.0, res.AreaLabels[0].X) // 100 - 40/2
}

func TestPlaceLabels_SingleLabelNoSymbolIsAccepted(t *testing.T) {
	c := freshCache()
	labels := []depcache.PointText{
		{Text: "cafe", X: 100, Y: 100, Width: 30, Height: 10, NodeIndex: 1},
	}
	res := PlaceLabels(c, labels, nil, nil, centerTile())
	require.Len(t, res.Labels, 1)
	assert.Equal(t, "cafe", res.Labels[0].Text)
}

func TestPlaceLabels_CoherenceDropsSymbolRefWhenSymbolCulled(t *testing.T) {
	c := freshCache()
	sym := depcache.Symbol{BitmapID: "s1", X: 10000, Y: 10000, Width: 16, Height: 16} // fully outside tile
	labels := []depcache.PointText{
		{Text: "shop", X: 100, Y: 100, Width: 30, Height: 10, NodeIndex: 1, SymbolRef: &sym},
	}
	res := PlaceLabels(c, labels, nil, []depcache.Symbol{sym}, centerTile())
	require.Len(t, res.Labels, 1)
	// Symbol was culled as fully outside the tile, so only the centered
	// candidate (no symbolRef) should have been generated and accepted.
	assert.Len(t, res.Symbols, 0)
}

func TestPlaceLabels_FourPositionCandidatesAroundSymbol(t *testing.T) {
	c := freshCache()
	sym := depcache.Symbol{BitmapID: "s1", X: 100, Y: 100, Width: 16, Height: 16}
	labels := []depcache.PointText{
		{Text: "shop", X: 108, Y: 108, Width: 30, Height: 10, NodeIndex: 1, SymbolRef: &sym},
	}
	res := PlaceLabels(c, labels, nil, []depcache.Symbol{sym}, centerTile())
	require.Len(t, res.Labels, 1)
	require.Len(t, res.Symbols, 1)
}

func TestPlaceLabels_CollidingSiblingGroupKeepsOnlyOnePerNode(t *testing.T) {
	c := freshCache()
	sym := depcache.Symbol{BitmapID: "s1", X: 100, Y: 100, Width: 16, Height: 16}
	labels := []depcache.PointText{
		{Text: "shop", X: 108, Y: 108, Width: 30, Height: 10, NodeIndex: 1, SymbolRef: &sym},
	}
	res := PlaceLabels(c, labels, nil, []depcache.Symbol{sym}, centerTile())
	// Only one of the up-to-four candidates for node 1 may be accepted.
	count := 0
	for _, l := range res.Labels {
		if l.NodeIndex == 1 {
			count++
		}
	}
	assert.LessOrEqual(t, count, 1)
}

func TestPlaceLabels_OverlappingLabelsResolveToNonOverlappingSubset(t *testing.T) {
	c := freshCache()
	labels := []depcache.PointText{
		{Text: "a", X: 100, Y: 100, Width: 30, Height: 10, NodeIndex: 1},
		{Text: "b", X: 102, Y: 101, Width: 30, Height: 10, NodeIndex: 2},
	}
	res := PlaceLabels(c, labels, nil, nil, centerTile())
	require.GreaterOrEqual(t, len(res.Labels), 1)
	if len(res.Labels) == 2 {
		assert.False(t, res.Labels[0].Boundary().Intersects(res.Labels[1].Boundary()))
	}
}

func TestPlaceLabels_CrossTileSuppressesDuplicateText(t *testing.T) {
	c := freshCache()
	center := centerTile()
	c.SetCurrentTile(center)
	c.Get(center).Drawn = false
	c.Record([]depcache.PointText{{Text: "Main St", X: 10, Y: 10, Width: 40, Height: 10, NodeIndex: 99}}, nil, nil)

	// A second pass over the same tile (simulating a re-render) with the
	// same text should be suppressed by R2's duplicate-triple rule.
	labels := []depcache.PointText{
		{Text: "Main St", X: 200, Y: 200, Width: 40, Height: 10, NodeIndex: 1},
	}
	res := PlaceLabels(c, labels, nil, nil, center)
	assert.Len(t, res.Labels, 0)
}
