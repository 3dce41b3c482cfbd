// Package depcache implements the cross-tile dependency cache (spec.md §4.3,
// component C3): it tracks which labels and symbols a tile has committed
// near its edges so that a neighboring tile, rendered later, never places
// something that would visibly collide with them.
package depcache

import "github.com/tilestack/maprender/internal/tilemath"

// Paint is an opaque reference to a fill/stroke style. The actual paint
// representation belongs to the graphics backend (out of scope per
// spec.md §1); the cache only needs paint identity for duplicate-text
// suppression (spec.md §4.3 R2), so an opaque comparable value is enough.
type Paint any

// PointText is a caption anchored at a pixel position, as placed by a POI
// or an area label (spec.md §3).
type PointText struct {
	Text       string
	PaintFront Paint
	PaintBack  Paint // optional halo/outline paint; nil if none
	X, Y       float64
	Width      float64
	Height     float64
	SymbolRef  *Symbol // non-nil if this label is attached to a symbol
	NodeIndex  int     // identifies the originating POI, for greedy grouping
}

// Boundary returns the label's axis-aligned bounding box. The anchor's Y is
// the text baseline, so the box's top edge sits at Y-Height (spec.md §3).
func (p PointText) Boundary() tilemath.Rect {
	return tilemath.Rect{X: p.X, Y: p.Y - p.Height, W: p.Width, H: p.Height}
}

// textKey identifies a label for duplicate suppression across tile seams:
// (text, paintFront, paintBack), not identity (spec.md §9 "Shared text
// across seams").
type textKey struct {
	text       string
	paintFront Paint
	paintBack  Paint
}

func (p PointText) key() textKey {
	return textKey{text: p.Text, paintFront: p.PaintFront, paintBack: p.PaintBack}
}

// Symbol is a bitmap placed at a point, optionally center-aligned and
// rotated (spec.md §3). Width/Height are supplied by the caller (normally
// derived from the bitmap by the renderer, which is out of scope here).
type Symbol struct {
	BitmapID    string // opaque identifier for the backing bitmap
	X, Y        float64
	Width       float64
	Height      float64
	AlignCenter bool
	Rotation    float64
	HasRotation bool
}

// Boundary returns the symbol's axis-aligned bounding box.
func (s Symbol) Boundary() tilemath.Rect {
	x := s.X
	y := s.Y
	if s.AlignCenter {
		x -= s.Width / 2
		y -= s.Height / 2
	}
	return tilemath.Rect{X: x, Y: y, W: s.Width, H: s.Height}
}

// labelEntry and symbolEntry pair a payload with the anchor it was recorded
// under in a particular tile's record — the same logical label can appear
// under different anchors in different tiles (spec.md §3
// "DependencyOnTile").
type labelEntry struct {
	label  PointText
	anchor [2]float64
}

type symbolEntry struct {
	symbol Symbol
	anchor [2]float64
}

// DependencyOnTile is the per-tile dependency record (spec.md §3). Drawn
// flips false→true exactly once, when placement for that tile finishes.
type DependencyOnTile struct {
	Drawn   bool
	labels  []labelEntry
	symbols []symbolEntry
}

// LabelRecord pairs a recorded label with the anchor it was filed under in
// this tile (which may differ from the label's own X/Y when it spilled in
// from a neighbor).
type LabelRecord struct {
	Label  PointText
	Anchor [2]float64
}

// SymbolRecord pairs a recorded symbol with the anchor it was filed under.
type SymbolRecord struct {
	Symbol Symbol
	Anchor [2]float64
}

// Labels returns the recorded labels for this tile.
func (d *DependencyOnTile) Labels() []LabelRecord {
	out := make([]LabelRecord, len(d.labels))
	for i, e := range d.labels {
		out[i] = LabelRecord{Label: e.label, Anchor: e.anchor}
	}
	return out
}

// Symbols returns the recorded symbols for this tile.
func (d *DependencyOnTile) Symbols() []SymbolRecord {
	out := make([]SymbolRecord, len(d.symbols))
	for i, e := range d.symbols {
		out[i] = SymbolRecord{Symbol: e.symbol, Anchor: e.anchor}
	}
	return out
}

// ReferencePosition is a candidate anchor for a POI caption (spec.md §3):
// up to four per POI (up/down/left/right), or just the centered one when
// the POI has no symbol.
type ReferencePosition struct {
	X, Y      float64
	NodeIndex int
	Width     float64
	Height    float64
}

// Boundary returns the candidate's axis-aligned bounding box, matching
// PointText's baseline-anchored convention.
func (r ReferencePosition) Boundary() tilemath.Rect {
	return tilemath.Rect{X: r.X, Y: r.Y - r.Height, W: r.Width, H: r.Height}
}
