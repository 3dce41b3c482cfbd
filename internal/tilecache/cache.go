// Package tilecache provides the disk-backed, job-keyed tile cache (spec.md
// §4.6): an LRU whose values are file paths of PNG-compressed tiles written
// into a scratch directory. Capacity 0 disables writes. get reads and
// decodes a cached file; a decode failure evicts the entry. put writes a
// fresh numbered file. Errors are logged, never propagated, matching
// spec.md §7's "cache errors are always swallowed and logged."
package tilecache

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tilestack/maprender/internal/apperrors"
	"github.com/tilestack/maprender/internal/encode"
	"github.com/tilestack/maprender/internal/metrics"
	"github.com/tilestack/maprender/internal/render"
)

// Cache is a capacity-bounded tile cache keyed by render.Key (tile + map
// file path + text scale), backed by a scratch directory of PNG files
// (spec.md §4.6). Capacity <= 0 disables writes entirely: Put becomes a
// no-op and Get always misses, which is how a caller opts out of caching
// without threading a separate flag through the render pool. The
// underlying LRU guards containsKey/get/put with its own single lock
// (SPEC_FULL.md §4.6 addition).
type Cache struct {
	dir      string
	lru      *lru.Cache[render.Key, string]
	capacity int
	counter  uint64
}

// New creates a cache holding up to capacity tiles, writing scratch files
// into dir (created if it does not already exist).
func New(dir string, capacity int) (*Cache, error) {
	c := &Cache{dir: dir, capacity: capacity}
	if capacity <= 0 {
		return c, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tilecache: creating scratch dir %s: %w: %w", dir, apperrors.ErrIOFailure, err)
	}

	l, err := lru.NewWithEvict[render.Key, string](capacity, func(key render.Key, path string) {
		metrics.TileCacheResult.WithLabelValues("evict").Inc()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("tilecache: removing evicted file %s: %v", path, err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// ContainsKey reports whether key is currently cached, without affecting
// recency order.
func (c *Cache) ContainsKey(key render.Key) bool {
	if c.lru == nil {
		return false
	}
	return c.lru.Contains(key)
}

// Get returns the cached tile for key, reading and decoding its scratch
// file. A read or decode failure is logged and treated as a miss; the
// broken entry is evicted so it is never returned again.
func (c *Cache) Get(key render.Key) (image.Image, bool) {
	if c.lru == nil {
		return nil, false
	}
	path, ok := c.lru.Get(key)
	if !ok {
		metrics.TileCacheResult.WithLabelValues("miss").Inc()
		return nil, false
	}

	img, err := readTileFile(path)
	if err != nil {
		log.Printf("tilecache: %v", err)
		c.lru.Remove(key)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("tilecache: removing unreadable file %s: %v", path, rmErr)
		}
		metrics.TileCacheResult.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.TileCacheResult.WithLabelValues("hit").Inc()
	return img, true
}

// Put PNG-encodes img and writes it to a freshly numbered file under the
// scratch directory, recording it under key. Encode or write errors are
// logged and otherwise swallowed — a cache write failure must never fail
// the render that produced the tile.
func (c *Cache) Put(key render.Key, img image.Image) {
	if c.lru == nil {
		return
	}
	enc := &encode.PNGEncoder{}
	data, err := enc.Encode(img)
	if err != nil {
		log.Printf("tilecache: encoding: %v", err)
		return
	}

	n := atomic.AddUint64(&c.counter, 1)
	path := filepath.Join(c.dir, fmt.Sprintf("tile-%020d.png", n))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("tilecache: %v", fmt.Errorf("writing %s: %w: %w", path, apperrors.ErrIOFailure, err))
		return
	}
	c.lru.Add(key, path)
}

// Len reports the number of tiles currently cached.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// readTileFile reads and PNG-decodes a scratch file, distinguishing a
// storage failure (ErrIOFailure) from a corrupt cached bitmap
// (ErrCacheCorruption) so callers can tell the two apart via errors.Is.
func readTileFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", path, apperrors.ErrIOFailure, err)
	}
	img, err := encode.DecodeImage(data, "png")
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", path, apperrors.ErrCacheCorruption, err)
	}
	return img, nil
}
