package depcache

import "github.com/tilestack/maprender/internal/tilemath"

// symbolOverlapInflation is the 2-pixel tolerance applied to recorded
// symbols in R2 and to recorded labels in R4 (spec.md §4.3).
const symbolOverlapInflation = 2.0

// Cache is the dependency cache (spec.md §3 "DependencyCache", C3). It is
// not thread-safe (spec.md §5): every operation must run from the single
// rendering worker that owns it, scoped to whatever tile SetCurrentTile last
// named.
type Cache struct {
	tileSize float64
	entries  map[tilemath.TileKey]*DependencyOnTile
	current  tilemath.TileKey

	// LegacyUpNeighborBug reproduces a suspected bug in the original
	// fillDependencyLabels logic (spec.md §9 open question): a symbol spill
	// that should route to the `down` neighbor is instead routed to `up`.
	// Default false (the corrected behavior).
	LegacyUpNeighborBug bool
}

// New creates an empty dependency cache for the given tile size in pixels.
func New(tileSize float64) *Cache {
	return &Cache{
		tileSize: tileSize,
		entries:  make(map[tilemath.TileKey]*DependencyOnTile),
	}
}

// entry returns (creating if necessary) the record for key.
func (c *Cache) entry(key tilemath.TileKey) *DependencyOnTile {
	d, ok := c.entries[key]
	if !ok {
		d = &DependencyOnTile{}
		c.entries[key] = d
	}
	return d
}

// Get returns the record for key without creating it, or nil.
func (c *Cache) Get(key tilemath.TileKey) *DependencyOnTile {
	return c.entries[key]
}

// TileSize returns the pixel tile size this cache was constructed with.
func (c *Cache) TileSize() float64 {
	return c.tileSize
}

// CurrentTile returns the tile key last passed to SetCurrentTile.
func (c *Cache) CurrentTile() tilemath.TileKey {
	return c.current
}

// Len reports how many tiles the cache currently holds entries for, a proxy
// for the memory this run's dependency tracking has accumulated.
func (c *Cache) Len() int {
	return len(c.entries)
}

// SetCurrentTile scopes subsequent R1-R5 calls to key, ensuring records
// exist (created empty, drawn=false) for key and all eight neighbors
// (spec.md §4.3).
func (c *Cache) SetCurrentTile(key tilemath.TileKey) {
	c.current = key
	c.entry(key)
	for _, d := range tilemath.AllDirections() {
		if nk, ok := key.Neighbor(d); ok {
			c.entry(nk)
		}
	}
}

// edgeSpill reports which of the four tile edges a rectangle spills past.
func (c *Cache) edgeSpill(r tilemath.Rect) (up, down, left, right bool) {
	return r.Top() < 0, r.Bottom() > c.tileSize, r.Left() < 0, r.Right() > c.tileSize
}

// neighborDrawn reports whether the neighbor in direction d of the current
// tile exists and is drawn. Off-world tiles count as not-drawn (spec.md
// §4.3 R1).
func (c *Cache) neighborDrawn(d tilemath.Direction) bool {
	nk, exists := c.current.Neighbor(d)
	if !exists {
		return false
	}
	n, ok := c.entries[nk]
	return ok && n.Drawn
}

// boundaried is anything the cache can test for edge spill and overlap:
// PointText, a plain area-label Rect, or Symbol all satisfy it via small
// adapters below.
type boundaried interface {
	Boundary() tilemath.Rect
}

// R1. RemoveOutOfDrawnAreas drops any item whose bounding rectangle crosses
// into a neighbor already marked drawn (spec.md §4.3 R1). Works for both
// PointText (area labels) and Symbol via the boundaried interface; T is
// returned filtered in place (order-preserving).
func RemoveOutOfDrawnAreas[T boundaried](c *Cache, items []T) []T {
	out := items[:0]
	for _, it := range items {
		if c.outOfDrawnArea(it.Boundary()) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (c *Cache) outOfDrawnArea(r tilemath.Rect) bool {
	up, down, left, right := c.edgeSpill(r)
	if up && c.neighborDrawn(tilemath.North) {
		return true
	}
	if down && c.neighborDrawn(tilemath.South) {
		return true
	}
	if left && c.neighborDrawn(tilemath.West) {
		return true
	}
	if right && c.neighborDrawn(tilemath.East) {
		return true
	}
	return false
}

// R2. RemoveOverlapping drops labels, area labels, and symbols whose
// rectangle intersects any label/symbol already recorded in the current
// tile's dependency record (spec.md §4.3 R2). Label-vs-label additionally
// drops on a (text, paintFront, paintBack) match regardless of geometric
// overlap. Symbol-vs-symbol uses a 2px inflation of the recorded symbol
// rectangle.
func (c *Cache) RemoveOverlapping(labels, areaLabels []PointText, symbols []Symbol) (keptLabels, keptAreaLabels []PointText, keptSymbols []Symbol) {
	cur := c.entry(c.current)

	recordedKeys := make(map[textKey]bool, len(cur.labels))
	for _, e := range cur.labels {
		recordedKeys[e.label.key()] = true
	}

	labelOverlapsRecorded := func(p PointText) bool {
		if recordedKeys[p.key()] {
			return true
		}
		b := p.Boundary()
		for _, e := range cur.labels {
			if b.Intersects(e.label.Boundary()) {
				return true
			}
		}
		for _, e := range cur.symbols {
			if b.Intersects(e.symbol.Boundary()) {
				return true
			}
		}
		return false
	}

	for _, l := range labels {
		if !labelOverlapsRecorded(l) {
			keptLabels = append(keptLabels, l)
		}
	}
	for _, l := range areaLabels {
		if !labelOverlapsRecorded(l) {
			keptAreaLabels = append(keptAreaLabels, l)
		}
	}
	for _, s := range symbols {
		b := s.Boundary()
		overlaps := false
		for _, e := range cur.labels {
			if b.Intersects(e.label.Boundary()) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			for _, e := range cur.symbols {
				if b.Intersects(e.symbol.Boundary().Inflate(symbolOverlapInflation)) {
					overlaps = true
					break
				}
			}
		}
		if !overlaps {
			keptSymbols = append(keptSymbols, s)
		}
	}
	return
}

// R3. RemoveOutOfTileReferencePoints nullifies candidates that would spill
// into an already-drawn neighbor, using the same edge tests as R1 (spec.md
// §4.3 R3). Candidates are nullified in place by setting the slice element
// to nil.
func (c *Cache) RemoveOutOfTileReferencePoints(refs []*ReferencePosition) {
	for i, r := range refs {
		if r == nil {
			continue
		}
		if c.outOfDrawnArea(r.Boundary()) {
			refs[i] = nil
		}
	}
}

// R4. RemoveOverlappingReferencePoints nullifies candidates intersecting
// recorded labels (with 2px inflation) or recorded symbols (no inflation)
// (spec.md §4.3 R4).
func (c *Cache) RemoveOverlappingReferencePoints(refs []*ReferencePosition) {
	cur := c.entry(c.current)
	for i, r := range refs {
		if r == nil {
			continue
		}
		b := r.Boundary()
		overlap := false
		for _, e := range cur.labels {
			if b.Intersects(e.label.Boundary().Inflate(symbolOverlapInflation)) {
				overlap = true
				break
			}
		}
		if !overlap {
			for _, e := range cur.symbols {
				if b.Intersects(e.symbol.Boundary()) {
					overlap = true
					break
				}
			}
		}
		if overlap {
			refs[i] = nil
		}
	}
}

// canReceive reports whether the neighbor in direction d of the current
// tile exists and has not yet been drawn — the gate a spilling item must
// pass before a second record is filed there (spec.md §4.3 R5).
func (c *Cache) canReceive(d tilemath.Direction) bool {
	nk, exists := c.current.Neighbor(d)
	if !exists {
		return false
	}
	n, ok := c.entries[nk]
	return ok && !n.Drawn
}

// translateAnchor shifts an anchor by one tile width/height in the
// direction of neighbor d, so the same point expressed in d's local frame
// lands back inside its [0,tileSize) square.
func (c *Cache) translateAnchor(x, y float64, d tilemath.Direction) (float64, float64) {
	switch d {
	case tilemath.North:
		return x, y + c.tileSize
	case tilemath.South:
		return x, y - c.tileSize
	case tilemath.East:
		return x - c.tileSize, y
	case tilemath.West:
		return x + c.tileSize, y
	case tilemath.NorthEast:
		return x - c.tileSize, y + c.tileSize
	case tilemath.NorthWest:
		return x + c.tileSize, y + c.tileSize
	case tilemath.SouthEast:
		return x - c.tileSize, y - c.tileSize
	case tilemath.SouthWest:
		return x + c.tileSize, y - c.tileSize
	default:
		return x, y
	}
}

// spillTargets computes which neighbors a rectangle spilling across the
// given edges should be recorded into: the axial neighbor for each
// crossed edge that can still receive, plus a corner neighbor when the
// spill crosses both of that corner's edges and both axial neighbors are
// themselves untouched by drawing (spec.md §4.3 R5, corner rule).
func (c *Cache) spillTargets(up, down, left, right bool) []tilemath.Direction {
	axialOK := map[tilemath.Direction]bool{}
	var dirs []tilemath.Direction
	add := func(d tilemath.Direction, spill bool) {
		if !spill {
			return
		}
		ok := c.canReceive(d)
		axialOK[d] = ok
		if ok {
			dirs = append(dirs, d)
		}
	}
	add(tilemath.North, up)
	add(tilemath.South, down)
	add(tilemath.West, left)
	add(tilemath.East, right)

	addCorner := func(corner tilemath.Direction, a, b tilemath.Direction) {
		if axialOK[a] && axialOK[b] && c.canReceive(corner) {
			dirs = append(dirs, corner)
		}
	}
	if up && left {
		addCorner(tilemath.NorthWest, tilemath.North, tilemath.West)
	}
	if up && right {
		addCorner(tilemath.NorthEast, tilemath.North, tilemath.East)
	}
	if down && left {
		addCorner(tilemath.SouthWest, tilemath.South, tilemath.West)
	}
	if down && right {
		addCorner(tilemath.SouthEast, tilemath.South, tilemath.East)
	}
	return dirs
}

// R5. Record commits accepted labels, area labels, and symbols into the
// current tile's dependency record, marks the current tile drawn, and
// files a mirrored entry into every still-undrawn neighbor the item spills
// into (spec.md §4.3 R5). Each item is added to the current tile's own
// list exactly once regardless of how many neighbors it also reaches.
func (c *Cache) Record(labels, areaLabels []PointText, symbols []Symbol) {
	cur := c.entry(c.current)
	cur.Drawn = true

	recordLabel := func(l PointText) {
		cur.labels = append(cur.labels, labelEntry{label: l, anchor: [2]float64{l.X, l.Y}})
		up, down, left, right := c.edgeSpill(l.Boundary())
		for _, d := range c.spillTargets(up, down, left, right) {
			nk, _ := c.current.Neighbor(d)
			n := c.entry(nk)
			x, y := c.translateAnchor(l.X, l.Y, d)
			n.labels = append(n.labels, labelEntry{label: l, anchor: [2]float64{x, y}})
		}
	}
	for _, l := range labels {
		recordLabel(l)
	}
	for _, l := range areaLabels {
		recordLabel(l)
	}

	for _, s := range symbols {
		cur.symbols = append(cur.symbols, symbolEntry{symbol: s, anchor: [2]float64{s.X, s.Y}})
		up, down, left, right := c.edgeSpill(s.Boundary())
		if c.LegacyUpNeighborBug && down {
			up, down = true, false
		}
		for _, d := range c.spillTargets(up, down, left, right) {
			nk, _ := c.current.Neighbor(d)
			n := c.entry(nk)
			x, y := c.translateAnchor(s.X, s.Y, d)
			n.symbols = append(n.symbols, symbolEntry{symbol: s, anchor: [2]float64{x, y}})
		}
	}
}
