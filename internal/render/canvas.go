package render

// Canvas is the graphics-backend collaborator (spec.md §1: "the graphics
// back end ... is deliberately out of scope", named here only as the
// interface the renderer depends on). A concrete adapter lives in
// internal/canvas.
type Canvas interface {
	Clear(fill Paint)
	FillPolygon(coords [][2]float64, fill Paint)
	StrokePolyline(coords [][2]float64, stroke Paint, width float64)
	MeasureText(text string) (width, height float64)
	DrawText(text string, x, y float64, paint Paint)
	DrawSymbol(bitmapID string, x, y, rotation float64, alignCenter bool)
}

// POI is a point feature from the map reader (geometry extraction beyond
// the header is out of scope per spec.md §1; callers supply already-decoded
// features).
type POI struct {
	X, Y float64
	Tags map[string]string
}

// Way is a line or polygon feature from the map reader. Coordinates holds
// one or more rings/lines in tile-pixel space.
type Way struct {
	Coordinates [][][2]float64
	Tags        map[string]string
	Layer       int
}

// Theme decides how to draw POIs and ways, calling back into the supplied
// Context to buffer draw commands (spec.md §4.5 step (d)). Per-job draw
// state lives in Context; the theme itself holds only the text and stroke
// scale that the renderer sets through SetTextScale and SetStrokeScale.
type Theme interface {
	// Identity distinguishes one loaded theme from another; the renderer
	// rebuilds its bucket array when this changes (spec.md §4.5 step (a)).
	Identity() string
	// LevelCount is the theme-declared number of draw levels.
	LevelCount() int
	// SetTextScale propagates a changed text scale into the theme's rules
	// (spec.md §4.5 step (c)).
	SetTextScale(scale float64)
	// SetStrokeScale propagates the zoom-dependent stroke rescale factor
	// (spec.md §4.5 step (b), StrokeRescale) into the theme's line paints.
	SetStrokeScale(factor float64)
	// RenderPointOfInterest dispatches a POI through the theme's matching
	// rules, which call back into ctx.
	RenderPointOfInterest(ctx *Context, poi POI)
	// RenderWay dispatches a way through the theme's matching rules, which
	// call back into ctx.
	RenderWay(ctx *Context, way Way)
}
