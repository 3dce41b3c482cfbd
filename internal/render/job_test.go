package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilestack/maprender/internal/apperrors"
	"github.com/tilestack/maprender/internal/tilemath"
)

func TestNewJob_RejectsEmptyMapFilePath(t *testing.T) {
	_, err := NewJob(tilemath.MakeTileKey(10, 5, 5), "", "default", 1.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestNewJob_RejectsNonPositiveTextScale(t *testing.T) {
	_, err := NewJob(tilemath.MakeTileKey(10, 5, 5), "world.map", "default", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	_, err = NewJob(tilemath.MakeTileKey(10, 5, 5), "world.map", "default", -1.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestNewJob_AcceptsValidInput(t *testing.T) {
	tile := tilemath.MakeTileKey(10, 5, 5)
	job, err := NewJob(tile, "world.map", "default", 1.5)
	require.NoError(t, err)
	assert.Equal(t, tile, job.Tile)
	assert.Equal(t, "world.map", job.MapFilePath)
	assert.Equal(t, "default", job.ThemeHandle)
	assert.Equal(t, 1.5, job.TextScale)
}
