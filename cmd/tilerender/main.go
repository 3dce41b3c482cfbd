// Command tilerender opens a single map file, renders one tile with the
// built-in placeholder theme, and writes the result to disk. Actual feature
// geometry decoding lives outside this module's scope (spec.md §1 — "the
// geometry reader for ways/POIs beyond the header" is a collaborator only),
// so the tile is rendered from placeholder features: one square area inset
// by an eighth of the tile size and labeled with the map file's base name,
// plus a POI of the same name at the tile center, enough to exercise the
// whole pipeline end to end. The map file's declared extent is not used.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tilestack/maprender/internal/canvas"
	"github.com/tilestack/maprender/internal/depcache"
	"github.com/tilestack/maprender/internal/encode"
	"github.com/tilestack/maprender/internal/mapfile"
	"github.com/tilestack/maprender/internal/pmtiles"
	"github.com/tilestack/maprender/internal/render"
	"github.com/tilestack/maprender/internal/tilecache"
	"github.com/tilestack/maprender/internal/tilemath"
)

func main() {
	var (
		tile          string
		textScale     float64
		tileSize      int
		outputPath    string
		format        string
		quality       int
		pmtilesPath   string
		cacheDir      string
		cacheCapacity int
		verbose       bool
	)

	flag.StringVar(&tile, "tile", "", "Tile to render as zoom/x/y, e.g. \"12/2145/1391\"")
	flag.Float64Var(&textScale, "text-scale", 1.0, "Text scale factor passed to the theme")
	flag.IntVar(&tileSize, "tile-size", 256, "Output tile size in pixels")
	flag.StringVar(&outputPath, "out", "tile.png", "Output tile path")
	flag.StringVar(&format, "format", "png", "Output tile format: png, jpeg, or webp")
	flag.IntVar(&quality, "quality", 85, "Encoder quality for lossy formats (jpeg, webp)")
	flag.StringVar(&pmtilesPath, "pmtiles", "", "Also write the tile into a single-tile PMTiles archive at this path")
	flag.StringVar(&cacheDir, "cache-dir", "", "Scratch directory for the job-keyed tile cache; empty disables caching")
	flag.IntVar(&cacheCapacity, "cache-capacity", 64, "Maximum tiles held in the tile cache's scratch directory")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilerender [flags] <map-file>\n\n")
		fmt.Fprintf(os.Stderr, "Render a single tile from a map file to an image.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 || tile == "" {
		flag.Usage()
		os.Exit(1)
	}
	mapPath := args[0]

	zoom, x, y, err := parseTile(tile)
	if err != nil {
		log.Fatalf("Tile: %v", err)
	}

	start := time.Now()
	mf, err := mapfile.Open(mapPath)
	if err != nil {
		log.Fatalf("Opening map file: %v", err)
	}
	if verbose {
		log.Printf("Opened %s in %v (version %d, %d sub-file(s))",
			mapPath, time.Since(start).Round(time.Millisecond), mf.Info.FileVersion, mf.Info.NumberOfSubFiles)
	}

	sub := mf.QueryZoomLevel(int(zoom))
	if verbose {
		log.Printf("Zoom %d served by sub-file base=%d range=[%d,%d]",
			zoom, sub.BaseZoomLevel, sub.ZoomLevelMin, sub.ZoomLevelMax)
	}

	tileKey := tilemath.MakeTileKey(zoom, x, y)

	job, err := render.NewJob(tileKey, mapPath, "default", textScale)
	if err != nil {
		log.Fatalf("Building job: %v", err)
	}

	var tc *tilecache.Cache
	if cacheDir != "" {
		tc, err = tilecache.New(cacheDir, cacheCapacity)
		if err != nil {
			log.Fatalf("Opening tile cache: %v", err)
		}
	}

	enc, err := encode.NewEncoder(format, quality)
	if err != nil {
		log.Fatalf("Format: %v", err)
	}

	var tileImg image.Image
	if tc != nil {
		if img, hit := tc.Get(job.Key()); hit {
			tileImg = img
			if verbose {
				log.Printf("Tile cache hit for %+v", job.Key())
			}
		}
	}

	if tileImg == nil {
		cache := depcache.New(float64(tileSize))
		cache.SetCurrentTile(tileKey)

		theme := render.NewDefaultTheme()
		gg := canvas.New(tileSize, tileSize)
		r := render.NewRenderer(theme, gg, cache)

		pois, ways := placeholderFeatures(mapPath, tileSize)
		if _, err := r.Render(job, pois, ways); err != nil {
			log.Fatalf("Rendering tile: %v", err)
		}
		tileImg = gg.Image()

		if tc != nil {
			tc.Put(job.Key(), tileImg)
		}
	}

	tileData, err := enc.Encode(tileImg)
	if err != nil {
		log.Fatalf("Encoding %s: %v", enc.Format(), err)
	}
	if err := os.WriteFile(outputPath, tileData, 0o644); err != nil {
		log.Fatalf("Writing %s: %v", outputPath, err)
	}

	if pmtilesPath != "" {
		if err := writeSingleTilePMTiles(pmtilesPath, mf.Info.BoundingBox, zoom, x, y, tileSize, enc.PMTileType(), tileData); err != nil {
			log.Fatalf("Writing PMTiles archive: %v", err)
		}
		if err := verifyPMTilesRoundTrip(pmtilesPath, zoom, x, y, tileData); err != nil {
			log.Fatalf("Verifying PMTiles archive: %v", err)
		}
		if verbose {
			log.Printf("Wrote and verified single-tile PMTiles archive at %s", pmtilesPath)
		}
	}

	fmt.Printf("Rendered tile %d/%d/%d from %s -> %s in %v\n",
		zoom, x, y, mapPath, outputPath, time.Since(start).Round(time.Millisecond))
}

// writeSingleTilePMTiles wraps one already-rendered tile into a minimal
// PMTiles v3 archive, letting tilerender double as a smoke test for the
// archive writer without a batch pipeline.
func writeSingleTilePMTiles(path string, bbox mapfile.BoundingBox, zoom uint8, x, y uint32, tileSize int, pmTileType uint8, tileData []byte) error {
	w, err := pmtiles.NewWriter(path, pmtiles.WriterOptions{
		MinZoom: int(zoom),
		MaxZoom: int(zoom),
		Bounds: pmtiles.Bounds{
			MinLon: bbox.MinLon, MaxLon: bbox.MaxLon,
			MinLat: bbox.MinLat, MaxLat: bbox.MaxLat,
		},
		TileFormat: pmTileType,
		TileSize:   tileSize,
	})
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	if err := w.WriteTile(int(zoom), int(x), int(y), tileData); err != nil {
		w.Abort()
		return fmt.Errorf("writing tile: %w", err)
	}
	if err := w.Finalize(); err != nil {
		return fmt.Errorf("finalizing: %w", err)
	}
	return nil
}

// verifyPMTilesRoundTrip reopens the archive just written and confirms the
// one tile it holds reads back byte-identical, giving internal/pmtiles'
// Reader a real caller instead of only its own tests.
func verifyPMTilesRoundTrip(path string, zoom uint8, x, y uint32, want []byte) error {
	r, err := pmtiles.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	defer r.Close()

	got, err := r.ReadTile(int(zoom), int(x), int(y))
	if err != nil {
		return fmt.Errorf("reading back tile: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("tile round-trip mismatch: wrote %d bytes, read back %d", len(want), len(got))
	}
	return nil
}

// parseTile parses "zoom/x/y" into its three components.
func parseTile(s string) (zoom uint8, x, y uint32, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected zoom/x/y, got %q", s)
	}
	z, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("zoom: %w", err)
	}
	xi, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("x: %w", err)
	}
	yi, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("y: %w", err)
	}
	return uint8(z), uint32(xi), uint32(yi), nil
}

// placeholderFeatures stands in for the out-of-scope geometry reader: a
// single area covering most of the tile, labeled with the map file's base
// name, and one POI at the tile center.
func placeholderFeatures(mapPath string, tileSize int) ([]render.POI, []render.Way) {
	margin := float64(tileSize) / 8
	max := float64(tileSize) - margin
	ring := [][2]float64{
		{margin, margin}, {max, margin}, {max, max}, {margin, max}, {margin, margin},
	}
	name := strings.TrimSuffix(filepath.Base(mapPath), filepath.Ext(mapPath))

	ways := []render.Way{{
		Coordinates: [][][2]float64{ring},
		Tags:        map[string]string{"name": name},
		Layer:       0,
	}}
	pois := []render.POI{{
		X:    float64(tileSize) / 2,
		Y:    float64(tileSize) / 2,
		Tags: map[string]string{"name": name},
	}}
	return pois, ways
}
