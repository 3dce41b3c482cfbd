// Package metrics exposes the renderer's ambient observability surface
// (SPEC_FULL.md §4.6 addition) using github.com/prometheus/client_golang, the
// way brawer-wikidata-qrank's webservers instrument themselves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RenderDuration records wall-clock time spent in Renderer.Render, labeled
// by outcome so a slow placement pass is distinguishable from a failed one.
var RenderDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "maprender",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent rendering a single tile job.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// TileCacheResult counts tilecache lookups by result: hit, miss, or evict.
var TileCacheResult = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maprender",
		Subsystem: "tilecache",
		Name:      "results_total",
		Help:      "Tile cache lookups by outcome.",
	},
	[]string{"result"},
)

// DependencyCacheTiles tracks how many tile entries the cross-tile
// dependency cache is currently holding, a proxy for its memory footprint
// (spec.md §5: the cache grows with the area rendered in one run).
var DependencyCacheTiles = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "maprender",
		Subsystem: "depcache",
		Name:      "tiles",
		Help:      "Number of tiles currently tracked in the dependency cache.",
	},
)
