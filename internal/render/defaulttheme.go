package render

import (
	"image/color"

	"github.com/tilestack/maprender/internal/depcache"
)

// DefaultTheme is the placeholder theme named in the external interfaces
// (a full theme-rule XML loader is explicitly out of scope as a
// collaborator). It draws every way as a thin gray line, every area as a
// pale fill, and labels POIs/areas from their "name" tag, giving
// cmd/tilerender something concrete to drive end to end.
type DefaultTheme struct {
	textScale   float64
	strokeScale float64
}

// NewDefaultTheme constructs a DefaultTheme with scale factors at their
// neutral value.
func NewDefaultTheme() *DefaultTheme {
	return &DefaultTheme{textScale: 1.0, strokeScale: 1.0}
}

func (t *DefaultTheme) Identity() string         { return "default" }
func (t *DefaultTheme) LevelCount() int          { return 1 }
func (t *DefaultTheme) SetTextScale(s float64)   { t.textScale = s }
func (t *DefaultTheme) SetStrokeScale(f float64) { t.strokeScale = f }

var (
	wayStroke color.Color = color.Gray{Y: 96}
	areaFill  color.Color = color.RGBA{R: 230, G: 230, B: 220, A: 255}
	textPaint color.Color = color.Black
)

func (t *DefaultTheme) RenderPointOfInterest(ctx *Context, poi POI) {
	name, ok := poi.Tags["name"]
	if !ok || name == "" {
		return
	}
	ctx.RenderPointOfInterestCircle(poi.X, poi.Y, 3, areaFill)
	ctx.RenderPointOfInterestCaption(labelAt(name, poi.X, poi.Y, textPaint))
}

func (t *DefaultTheme) RenderWay(ctx *Context, way Way) {
	if len(way.Coordinates) == 0 {
		return
	}
	if isClosedArea(way) {
		ctx.RenderArea(way.Layer, 0, way.Coordinates[0], areaFill)
		if name, ok := way.Tags["name"]; ok && name != "" {
			cx, cy := centroid(way.Coordinates[0])
			ctx.RenderAreaCaption(labelAt(name, cx, cy, textPaint))
		}
		return
	}
	for _, ring := range way.Coordinates {
		ctx.RenderWay(way.Layer, 0, ring, wayStroke)
	}
	if name, ok := way.Tags["name"]; ok && name != "" {
		ctx.RenderWayText(way.Coordinates[0], name, textPaint)
	}
}

func isClosedArea(way Way) bool {
	ring := way.Coordinates[0]
	if len(ring) < 4 {
		return false
	}
	first, last := ring[0], ring[len(ring)-1]
	return first[0] == last[0] && first[1] == last[1]
}

// labelAt builds a label candidate with a rough text-box estimate; a real
// theme would measure against the loaded font instead.
func labelAt(text string, x, y float64, paint Paint) depcache.PointText {
	return depcache.PointText{
		Text:       text,
		PaintFront: paint,
		X:          x,
		Y:          y,
		Width:      float64(len(text)) * 6,
		Height:     10,
	}
}

func centroid(ring [][2]float64) (x, y float64) {
	if len(ring) == 0 {
		return 0, 0
	}
	for _, p := range ring {
		x += p[0]
		y += p[1]
	}
	n := float64(len(ring))
	return x / n, y / n
}
