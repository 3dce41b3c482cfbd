package tilecache

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilestack/maprender/internal/apperrors"
	"github.com/tilestack/maprender/internal/render"
	"github.com/tilestack/maprender/internal/tilemath"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}
	return img
}

func testKey() render.Key {
	tile := tilemath.MakeTileKey(10, 5, 5)
	return render.Job{Tile: tile, MapFilePath: "world.map", TextScale: 1.0}.Key()
}

func TestCache_ZeroCapacityNeverCaches(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	key := testKey()
	c.Put(key, testImage())
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.False(t, c.ContainsKey(key))
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c, err := New(t.TempDir(), 4)
	require.NoError(t, err)

	key := testKey()
	img := testImage()
	c.Put(key, img)

	assert.True(t, c.ContainsKey(key))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, img.Bounds(), got.Bounds())
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c, err := New(t.TempDir(), 4)
	require.NoError(t, err)

	_, ok := c.Get(testKey())
	assert.False(t, ok)
}

func TestCache_PutWritesNumberedScratchFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 4)
	require.NoError(t, err)

	c.Put(testKey(), testImage())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tile-00000000000000000001.png", entries[0].Name())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 1)
	require.NoError(t, err)

	tileA := tilemath.MakeTileKey(10, 1, 1)
	tileB := tilemath.MakeTileKey(10, 2, 2)
	keyA := render.Job{Tile: tileA, MapFilePath: "world.map", TextScale: 1.0}.Key()
	keyB := render.Job{Tile: tileB, MapFilePath: "world.map", TextScale: 1.0}.Key()

	c.Put(keyA, testImage())
	c.Put(keyB, testImage())

	assert.False(t, c.ContainsKey(keyA))
	assert.True(t, c.ContainsKey(keyB))
	assert.Equal(t, 1, c.Len())

	// The evicted entry's scratch file is removed, not merely forgotten.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCache_GetEvictsAndMissesOnRemovedFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 4)
	require.NoError(t, err)

	key := testKey()
	c.Put(key, testImage())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.Remove(filepath.Join(dir, entries[0].Name())))

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.False(t, c.ContainsKey(key))
}

func TestReadTileFile_IOFailureOnMissingFile(t *testing.T) {
	_, err := readTileFile(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIOFailure))
}

func TestReadTileFile_CacheCorruptionOnBadData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := readTileFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCacheCorruption))
}
