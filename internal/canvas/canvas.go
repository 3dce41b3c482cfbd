// Package canvas provides the default render.Canvas implementation
// (SPEC_FULL.md §4.5 addition): a thin adapter over github.com/fogleman/gg,
// the graphics backend spec.md §1 names as a collaborator but explicitly
// leaves out of scope.
package canvas

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/tilestack/maprender/internal/render"
)

// GGCanvas implements render.Canvas by drawing onto a gg.Context. Symbol
// bitmaps are registered up front by ID; DrawSymbol silently skips unknown
// IDs, matching the teacher's "missing asset never aborts the pipeline"
// posture.
type GGCanvas struct {
	ctx     *gg.Context
	bitmaps map[string]image.Image
}

// New creates a blank canvas of the given pixel size.
func New(width, height int) *GGCanvas {
	return &GGCanvas{
		ctx:     gg.NewContext(width, height),
		bitmaps: make(map[string]image.Image),
	}
}

// RegisterBitmap makes a symbol bitmap available to DrawSymbol under id.
func (c *GGCanvas) RegisterBitmap(id string, img image.Image) {
	c.bitmaps[id] = img
}

// Image returns the rendered bitmap.
func (c *GGCanvas) Image() image.Image {
	return c.ctx.Image()
}

// resolveColor interprets an opaque render.Paint as a color.Color, falling
// back to black for nil or unrecognized paint values — the paint
// representation itself belongs to the theme/graphics-backend collaborator
// (spec.md §1), so this adapter only needs to cope with whatever concrete
// type a theme happens to hand it.
func resolveColor(p render.Paint) color.Color {
	if p == nil {
		return color.Black
	}
	if col, ok := p.(color.Color); ok {
		return col
	}
	return color.Black
}

func (c *GGCanvas) Clear(fill render.Paint) {
	c.ctx.SetColor(resolveColor(fill))
	c.ctx.Clear()
}

func (c *GGCanvas) FillPolygon(coords [][2]float64, fill render.Paint) {
	if len(coords) == 0 {
		return
	}
	c.ctx.NewSubPath()
	c.ctx.MoveTo(coords[0][0], coords[0][1])
	for _, p := range coords[1:] {
		c.ctx.LineTo(p[0], p[1])
	}
	c.ctx.ClosePath()
	c.ctx.SetColor(resolveColor(fill))
	c.ctx.Fill()
}

func (c *GGCanvas) StrokePolyline(coords [][2]float64, stroke render.Paint, width float64) {
	if len(coords) < 2 {
		return
	}
	c.ctx.NewSubPath()
	c.ctx.MoveTo(coords[0][0], coords[0][1])
	for _, p := range coords[1:] {
		c.ctx.LineTo(p[0], p[1])
	}
	c.ctx.SetLineWidth(width)
	c.ctx.SetColor(resolveColor(stroke))
	c.ctx.Stroke()
}

func (c *GGCanvas) MeasureText(text string) (width, height float64) {
	return c.ctx.MeasureString(text)
}

func (c *GGCanvas) DrawText(text string, x, y float64, paint render.Paint) {
	c.ctx.SetColor(resolveColor(paint))
	c.ctx.DrawStringAnchored(text, x, y, 0, 1)
}

func (c *GGCanvas) DrawSymbol(bitmapID string, x, y, rotation float64, alignCenter bool) {
	img, ok := c.bitmaps[bitmapID]
	if !ok {
		return
	}
	ax, ay := 0.0, 0.0
	if alignCenter {
		ax, ay = 0.5, 0.5
	}
	if rotation != 0 {
		c.ctx.Push()
		c.ctx.RotateAbout(rotation, x, y)
		c.ctx.DrawImageAnchored(img, int(x), int(y), ax, ay)
		c.ctx.Pop()
		return
	}
	c.ctx.DrawImageAnchored(img, int(x), int(y), ax, ay)
}
