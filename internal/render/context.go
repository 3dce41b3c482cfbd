package render

import "github.com/tilestack/maprender/internal/depcache"

// shapeKind tags the payload carried by a shapeContainer.
type shapeKind int

const (
	kindArea shapeKind = iota
	kindWay
)

// shapeContainer is one buffered draw command bucketed by layer and level
// (spec.md §4.5 step (a), the "shapeContainer equivalent bucket array").
// Geometry is drawn later, in the fixed z-order of step (f), rather than
// immediately when the theme dispatches it.
type shapeContainer struct {
	kind   shapeKind
	coords [][2]float64
	paint  Paint
}

// Context is the explicit per-job render state passed into every theme
// callback (spec.md §9 design note: "model this as an explicit per-job
// context" rather than storing it on the renderer). It owns the layer×level
// bucket array and the label/symbol candidates collected for the placer.
type Context struct {
	levelCount int
	buckets    [][]shapeContainer // index: layer*levelCount + level

	waySymbols   []waySymbolCmd
	pointSymbols []pointSymbolCmd
	wayTexts     []wayTextCmd

	poiLabels  []depcache.PointText
	areaLabels []depcache.PointText
	symbols    []depcache.Symbol
}

type waySymbolCmd struct {
	coords     [][2]float64
	bitmapID   string
	repeat     bool
	alignAngle bool
}

type pointSymbolCmd struct {
	symbol depcache.Symbol
}

type wayTextCmd struct {
	coords [][2]float64
	text   string
	paint  Paint
}

// NewContext allocates a bucket array for a theme with levelCount declared
// levels (spec.md §4.5 step (a): rebuilt whenever theme identity changes).
func NewContext(levelCount int) *Context {
	return &Context{
		levelCount: levelCount,
		buckets:    make([][]shapeContainer, Layers*levelCount),
	}
}

func (c *Context) bucketIndex(layer, level int) int {
	if layer < 0 {
		layer = 0
	}
	if layer >= Layers {
		layer = Layers - 1
	}
	if level < 0 {
		level = 0
	}
	if level >= c.levelCount {
		level = c.levelCount - 1
	}
	return layer*c.levelCount + level
}

// Reset clears all buffered draw commands and label/symbol candidates,
// reusing the bucket array's backing storage for the next job.
func (c *Context) Reset() {
	for i := range c.buckets {
		c.buckets[i] = c.buckets[i][:0]
	}
	c.waySymbols = c.waySymbols[:0]
	c.pointSymbols = c.pointSymbols[:0]
	c.wayTexts = c.wayTexts[:0]
	c.poiLabels = c.poiLabels[:0]
	c.areaLabels = c.areaLabels[:0]
	c.symbols = c.symbols[:0]
}

// RenderArea buffers a filled polygon at (layer, level) (spec.md §4.5 step
// (d), theme callback "renderArea").
func (c *Context) RenderArea(layer, level int, coords [][2]float64, fill Paint) {
	i := c.bucketIndex(layer, level)
	c.buckets[i] = append(c.buckets[i], shapeContainer{kind: kindArea, coords: coords, paint: fill})
}

// RenderAreaCaption registers a candidate area label for the placer
// ("renderAreaCaption").
func (c *Context) RenderAreaCaption(label depcache.PointText) {
	c.areaLabels = append(c.areaLabels, label)
}

// RenderAreaSymbol registers a candidate area symbol for the placer
// ("renderAreaSymbol"). Only symbols the placer accepts are actually drawn
// (spec.md §4.4 step 8).
func (c *Context) RenderAreaSymbol(symbol depcache.Symbol) {
	c.symbols = append(c.symbols, symbol)
}

// RenderPointOfInterestCaption registers a candidate POI label for the
// placer ("renderPointOfInterestCaption").
func (c *Context) RenderPointOfInterestCaption(label depcache.PointText) {
	c.poiLabels = append(c.poiLabels, label)
}

// RenderPointOfInterestCircle buffers a POI drawn as a plain filled circle
// ("renderPointOfInterestCircle"). Circles are drawn unconditionally in the
// point-symbols pass — they do not participate in label collision.
func (c *Context) RenderPointOfInterestCircle(x, y, radius float64, fill Paint) {
	c.pointSymbols = append(c.pointSymbols, pointSymbolCmd{symbol: depcache.Symbol{
		BitmapID: "__circle__", X: x, Y: y, Width: radius * 2, Height: radius * 2, AlignCenter: true,
	}})
}

// RenderPointOfInterestSymbol registers a candidate POI symbol for the
// placer ("renderPointOfInterestSymbol").
func (c *Context) RenderPointOfInterestSymbol(symbol depcache.Symbol) {
	c.symbols = append(c.symbols, symbol)
}

// RenderWay buffers a stroked polyline at (layer, level) ("renderWay").
func (c *Context) RenderWay(layer, level int, coords [][2]float64, stroke Paint) {
	i := c.bucketIndex(layer, level)
	c.buckets[i] = append(c.buckets[i], shapeContainer{kind: kindWay, coords: coords, paint: stroke})
}

// RenderWaySymbol registers a repeated symbol along a way's geometry
// ("renderWaySymbol"); positions are computed by WaySymbolPositions at draw
// time, not subject to the placer (spec.md §4.4 "Way symbol repetition").
func (c *Context) RenderWaySymbol(coords [][2]float64, bitmapID string, repeat, alignAngle bool) {
	c.waySymbols = append(c.waySymbols, waySymbolCmd{coords: coords, bitmapID: bitmapID, repeat: repeat, alignAngle: alignAngle})
}

// RenderWayText registers a repeated way name along a way's geometry
// ("renderWayText"); like way symbols, positions come from WayTextSegments
// and are not subject to the placer.
func (c *Context) RenderWayText(coords [][2]float64, text string, paint Paint) {
	c.wayTexts = append(c.wayTexts, wayTextCmd{coords: coords, text: text, paint: paint})
}
