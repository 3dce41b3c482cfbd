// Package placer implements the intra-tile label placement engine
// (spec.md §4.4, component C4): it turns the labels, area labels, and
// symbols a theme wants to draw for one tile into a collision-free subset,
// coordinating with the neighboring tiles through a depcache.Cache.
package placer

import (
	"container/heap"

	"github.com/tilestack/maprender/internal/depcache"
	"github.com/tilestack/maprender/internal/tilemath"
)

// labelDistanceToSymbol is the inflation applied when testing a label
// candidate against surviving symbols and area labels (spec.md §4.4 step 7).
const labelDistanceToSymbol = 2.0

// symbolGap is the pixel gap between a symbol's edge and a label candidate
// placed above/below/left/right of it (spec.md §4.4 step 7).
const symbolGap = 4.0

// Result holds the placement's accepted output, ready for the renderer to
// draw and for the caller to commit via depcache.Cache.Record.
type Result struct {
	Labels     []depcache.PointText
	AreaLabels []depcache.PointText
	Symbols    []depcache.Symbol
}

// candidate is one of the up-to-four reference positions considered for a
// POI label (spec.md §3 "ReferencePosition"). ref backs the depcache R3/R4
// calls; label is the original label content (text/paint) to stamp onto the
// winning position; seq is the stable insertion-order tie-break.
type candidate struct {
	ref   *depcache.ReferencePosition
	label depcache.PointText
	seq   int
}

func (c *candidate) topEdge() float64 {
	return c.ref.Y - c.ref.Height
}

// PlaceLabels runs the 8-step placement algorithm from spec.md §4.4 for
// currentTile, consulting and updating cache for cross-tile coordination.
// Commit (step 8, depcache R5) is left to the caller so that a renderer can
// inspect the result before deciding to keep it.
func PlaceLabels(cache *depcache.Cache, labels, areaLabels []depcache.PointText, symbols []depcache.Symbol, currentTile tilemath.TileKey) Result {
	cache.SetCurrentTile(currentTile)
	tileSize := cache.TileSize()

	// Step 1: area labels.
	areaLabels = centerAreaLabels(areaLabels)
	areaLabels = dropFullyOutside(areaLabels, tileSize, func(p depcache.PointText) tilemath.Rect { return p.Boundary() })
	areaLabels = removeInternalOverlaps(areaLabels)
	areaLabels = depcache.RemoveOutOfDrawnAreas(cache, areaLabels)

	// Step 2: POI labels, tested with centered width but not mutated.
	labels = dropFullyOutside(labels, tileSize, centeredBoundary)

	// Step 3: symbols.
	symbols = dropFullyOutsideSymbols(symbols, tileSize)
	symbols = removeSymbolOverlaps(symbols)
	symbols = depcache.RemoveOutOfDrawnAreas(cache, symbols)

	// Step 4: coherence — drop symbolRef pointers to symbols that didn't
	// survive step 3.
	surviving := make(map[depcache.Symbol]bool, len(symbols))
	for _, s := range symbols {
		surviving[s] = true
	}
	for i := range labels {
		if labels[i].SymbolRef != nil && !surviving[*labels[i].SymbolRef] {
			labels[i].SymbolRef = nil
		}
	}

	// Step 5: area-vs-symbol.
	symbols = dropSymbolsOverlappingAreaLabels(symbols, areaLabels)

	// Step 6: cross-tile filter.
	labels, areaLabels, symbols = cache.RemoveOverlapping(labels, areaLabels, symbols)

	// Step 7: four-position greedy.
	placed := greedyPlace(cache, labels, symbols, areaLabels)

	return Result{Labels: placed, AreaLabels: areaLabels, Symbols: symbols}
}

// centerAreaLabels subtracts half the width from each area label's anchor,
// converting from a center-anchor to the left-edge convention PointText's
// Boundary expects (spec.md §4.4 step 1).
func centerAreaLabels(labels []depcache.PointText) []depcache.PointText {
	out := make([]depcache.PointText, len(labels))
	for i, l := range labels {
		l.X -= l.Width / 2
		out[i] = l
	}
	return out
}

func centeredBoundary(p depcache.PointText) tilemath.Rect {
	b := p.Boundary()
	b.X -= p.Width / 2
	return b
}

// dropFullyOutside removes items whose test rectangle lies entirely outside
// the tile frame (spec.md §4.4 steps 1-2).
func dropFullyOutside(items []depcache.PointText, tileSize float64, boundary func(depcache.PointText) tilemath.Rect) []depcache.PointText {
	out := items[:0]
	for _, it := range items {
		if boundary(it).FullyOutside(tileSize) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func dropFullyOutsideSymbols(symbols []depcache.Symbol, tileSize float64) []depcache.Symbol {
	out := symbols[:0]
	for _, s := range symbols {
		if s.Boundary().FullyOutside(tileSize) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// removeInternalOverlaps drops later-iteration items whose inflated
// rectangle intersects an earlier surviving one (spec.md §4.4 step 1).
func removeInternalOverlaps(labels []depcache.PointText) []depcache.PointText {
	var kept []depcache.PointText
	for _, l := range labels {
		b := l.Boundary().Inflate(labelDistanceToSymbol)
		collides := false
		for _, k := range kept {
			if b.Intersects(k.Boundary()) {
				collides = true
				break
			}
		}
		if !collides {
			kept = append(kept, l)
		}
	}
	return kept
}

func removeSymbolOverlaps(symbols []depcache.Symbol) []depcache.Symbol {
	var kept []depcache.Symbol
	for _, s := range symbols {
		b := s.Boundary().Inflate(labelDistanceToSymbol)
		collides := false
		for _, k := range kept {
			if b.Intersects(k.Boundary()) {
				collides = true
				break
			}
		}
		if !collides {
			kept = append(kept, s)
		}
	}
	return kept
}

func dropSymbolsOverlappingAreaLabels(symbols []depcache.Symbol, areaLabels []depcache.PointText) []depcache.Symbol {
	var kept []depcache.Symbol
	for _, s := range symbols {
		b := s.Boundary().Inflate(labelDistanceToSymbol)
		overlaps := false
		for _, a := range areaLabels {
			if b.Intersects(a.Boundary()) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}
	return kept
}

// greedyPlace runs spec.md §4.4 step 7: candidate generation, the R3/R4
// cross-tile filter, and the PU/PD sweep.
func greedyPlace(cache *depcache.Cache, labels []depcache.PointText, symbols []depcache.Symbol, areaLabels []depcache.PointText) []depcache.PointText {
	candidates, groups := generateCandidates(labels, symbols, areaLabels)
	if len(candidates) == 0 {
		return nil
	}

	refs := make([]*depcache.ReferencePosition, len(candidates))
	for i, c := range candidates {
		refs[i] = c.ref
	}
	cache.RemoveOutOfTileReferencePoints(refs)
	cache.RemoveOverlappingReferencePoints(refs)

	removed := make(map[*candidate]bool)
	var live []*candidate
	for i, r := range refs {
		if r == nil {
			removed[candidates[i]] = true
		} else {
			live = append(live, candidates[i])
		}
	}

	markGroup := func(nodeIndex int) {
		for _, m := range groups[nodeIndex] {
			removed[m] = true
		}
	}

	pu := make(byTopEdge, len(live))
	copy(pu, live)
	heap.Init(&pu)
	pd := make(byBottomEdge, len(live))
	copy(pd, live)
	heap.Init(&pd)

	var accepted []*candidate
	for pu.Len() > 0 {
		var c *candidate
		for pu.Len() > 0 {
			cc := heap.Pop(&pu).(*candidate)
			if removed[cc] {
				continue
			}
			c = cc
			break
		}
		if c == nil {
			break
		}
		accepted = append(accepted, c)
		markGroup(c.ref.NodeIndex)

		cX, cY, cW, cH := c.ref.X, c.ref.Y, c.ref.Width, c.ref.Height
		lowY, highY := cY-cH, cY+cH

		var redrain []*candidate
		for pd.Len() > 0 {
			front := pd[0]
			if removed[front] {
				heap.Pop(&pd)
				continue
			}
			if front.ref.X >= cX+cW {
				break
			}
			cand := heap.Pop(&pd).(*candidate)
			if removed[cand] {
				continue
			}
			if cand.ref.Y >= lowY && cand.ref.Y <= highY {
				markGroup(cand.ref.NodeIndex)
			} else {
				redrain = append(redrain, cand)
			}
		}
		for _, cand := range redrain {
			heap.Push(&pd, cand)
		}
	}

	placed := make([]depcache.PointText, len(accepted))
	for i, c := range accepted {
		l := c.label
		l.X, l.Y = c.ref.X, c.ref.Y
		placed[i] = l
	}
	return placed
}

// generateCandidates builds the up-to-four reference positions per POI
// label (spec.md §4.4 step 7), drops any that collide with a surviving
// symbol or area label, and returns both the candidate list and a
// nodeIndex→group index for the sweep's sibling-removal rule.
func generateCandidates(labels []depcache.PointText, symbols []depcache.Symbol, areaLabels []depcache.PointText) ([]*candidate, map[int][]*candidate) {
	symbolByValue := make(map[depcache.Symbol]bool, len(symbols))
	for _, s := range symbols {
		symbolByValue[s] = true
	}

	var out []*candidate
	groups := make(map[int][]*candidate)
	seq := 0

	blocked := func(r tilemath.Rect) bool {
		for _, s := range symbols {
			if r.Intersects(s.Boundary().Inflate(labelDistanceToSymbol)) {
				return true
			}
		}
		for _, a := range areaLabels {
			if r.Intersects(a.Boundary().Inflate(labelDistanceToSymbol)) {
				return true
			}
		}
		return false
	}

	addCandidate := func(label depcache.PointText, x, y float64) {
		ref := &depcache.ReferencePosition{X: x, Y: y, Width: label.Width, Height: label.Height, NodeIndex: label.NodeIndex}
		if blocked(ref.Boundary()) {
			return
		}
		c := &candidate{ref: ref, label: label, seq: seq}
		seq++
		out = append(out, c)
		groups[label.NodeIndex] = append(groups[label.NodeIndex], c)
	}

	for _, l := range labels {
		if l.SymbolRef != nil && symbolByValue[*l.SymbolRef] {
			sr := l.SymbolRef.Boundary()
			cx := sr.X + sr.W/2
			cy := sr.Y + sr.H/2
			// above: box bottom sits symbolGap above the symbol's top edge.
			addCandidate(l, cx-l.Width/2, sr.Top()-symbolGap)
			// below: box top sits symbolGap below the symbol's bottom edge.
			addCandidate(l, cx-l.Width/2, sr.Bottom()+symbolGap+l.Height)
			// left: box right edge sits symbolGap left of the symbol, vertically centered.
			addCandidate(l, sr.Left()-symbolGap-l.Width, cy+l.Height/2)
			// right: box left edge sits symbolGap right of the symbol, vertically centered.
			addCandidate(l, sr.Right()+symbolGap, cy+l.Height/2)
		} else {
			addCandidate(l, l.X-l.Width/2, l.Y+l.Height/2)
		}
	}
	return out, groups
}
