package render

import (
	"time"

	"github.com/tilestack/maprender/internal/depcache"
	"github.com/tilestack/maprender/internal/metrics"
	"github.com/tilestack/maprender/internal/placer"
)

// Renderer drives one tile's render pipeline (spec.md §4.5 steps (a)-(f)).
// It is not safe for concurrent use by multiple goroutines on the same
// instance — the worker pool in pool.go gives each layer worker its own
// Renderer, matching the dependency cache's single-owner rule (spec.md §5).
type Renderer struct {
	Theme  Theme
	Canvas Canvas
	Cache  *depcache.Cache

	ctx              *Context
	themeIdentity    string
	lastZoom         int
	haveRenderedOnce bool
}

// NewRenderer constructs a Renderer bound to a theme, a graphics backend,
// and the dependency cache it coordinates placement through.
func NewRenderer(theme Theme, canvas Canvas, cache *depcache.Cache) *Renderer {
	return &Renderer{Theme: theme, Canvas: canvas, Cache: cache}
}

// Render executes one job: dispatch, placement, and the fixed z-order draw
// pass (spec.md §4.5). pois and ways are the already-decoded features for
// this tile (the geometry reader itself is out of scope per spec.md §1).
func (r *Renderer) Render(job Job, pois []POI, ways []Way) (placer.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RenderDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		metrics.DependencyCacheTiles.Set(float64(r.Cache.Len()))
	}()

	// Step (a): rebuild the bucket array if theme identity changed.
	identity := r.Theme.Identity()
	if !r.haveRenderedOnce || identity != r.themeIdentity {
		r.ctx = NewContext(r.Theme.LevelCount())
		r.themeIdentity = identity
		r.haveRenderedOnce = true
	} else {
		r.ctx.Reset()
	}

	// Step (b): rescale strokes if zoom changed.
	zoom := int(job.Tile.Zoom())
	if zoom != r.lastZoom {
		r.Theme.SetStrokeScale(StrokeRescale(zoom))
		r.lastZoom = zoom
	}

	// Step (c): propagate text scale.
	r.Theme.SetTextScale(job.TextScale)

	// Step (d): dispatch every feature through the theme.
	for _, p := range pois {
		r.Theme.RenderPointOfInterest(r.ctx, p)
	}
	for _, w := range ways {
		r.Theme.RenderWay(r.ctx, w)
	}

	// Step (e): run the label placer.
	placed := placer.PlaceLabels(r.Cache, r.ctx.poiLabels, r.ctx.areaLabels, r.ctx.symbols, job.Tile)

	// Step (f): draw in fixed z-order.
	r.draw(placed)

	r.Cache.Record(placed.Labels, placed.AreaLabels, placed.Symbols)

	return placed, nil
}

func (r *Renderer) draw(placed placer.Result) {
	r.Canvas.Clear(nil)

	for layer := 0; layer < Layers; layer++ {
		for level := 0; level < r.ctx.levelCount; level++ {
			for _, shape := range r.ctx.buckets[r.ctx.bucketIndex(layer, level)] {
				switch shape.kind {
				case kindArea:
					r.Canvas.FillPolygon(shape.coords, shape.paint)
				case kindWay:
					r.Canvas.StrokePolyline(shape.coords, shape.paint, 1.0)
				}
			}
		}
	}

	for _, ws := range r.ctx.waySymbols {
		for _, pos := range WaySymbolPositions(ws.coords, ws.repeat) {
			rot := 0.0
			if ws.alignAngle {
				rot = pos.Rotation
			}
			r.Canvas.DrawSymbol(ws.bitmapID, pos.X, pos.Y, rot, true)
		}
	}

	for _, ps := range r.ctx.pointSymbols {
		r.Canvas.DrawSymbol(ps.symbol.BitmapID, ps.symbol.X, ps.symbol.Y, ps.symbol.Rotation, ps.symbol.AlignCenter)
	}
	for _, s := range placed.Symbols {
		r.Canvas.DrawSymbol(s.BitmapID, s.X, s.Y, s.Rotation, s.AlignCenter)
	}

	for _, wt := range r.ctx.wayTexts {
		w, _ := r.Canvas.MeasureText(wt.text)
		for _, pos := range WayTextSegments(wt.coords, w) {
			r.Canvas.DrawText(wt.text, pos.X, pos.Y, wt.paint)
		}
	}

	for _, l := range placed.Labels {
		r.Canvas.DrawText(l.Text, l.X, l.Y, l.PaintFront)
	}
	for _, l := range placed.AreaLabels {
		r.Canvas.DrawText(l.Text, l.X, l.Y, l.PaintFront)
	}
}
