package tilemath

// Rect is an axis-aligned rectangle in a tile's local pixel frame. Unlike a
// screen rectangle, coordinates may be negative or exceed the tile size —
// that is exactly what marks an item as a cross-tile dependency candidate
// (spec.md §3).
type Rect struct {
	X, Y, W, H float64
}

// Top, Bottom, Left, Right return the rectangle's edges.
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }

// Inflate grows the rectangle by px on every side, used for the 2-pixel
// overlap tolerance the dependency cache and placer apply to symbols and
// labels.
func (r Rect) Inflate(px float64) Rect {
	return Rect{
		X: r.X - px,
		Y: r.Y - px,
		W: r.W + 2*px,
		H: r.H + 2*px,
	}
}

// Intersects reports whether two rectangles overlap, using closed intervals
// on both axes (touching edges count as intersecting).
func (r Rect) Intersects(o Rect) bool {
	return r.Left() <= o.Right() && o.Left() <= r.Right() &&
		r.Top() <= o.Bottom() && o.Top() <= r.Bottom()
}

// FullyOutside reports whether the rectangle lies entirely outside the
// [0,size]x[0,size] tile frame.
func (r Rect) FullyOutside(size float64) bool {
	return r.Right() < 0 || r.Left() > size || r.Bottom() < 0 || r.Top() > size
}
