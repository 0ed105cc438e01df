package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRectangleValidates(t *testing.T) {
	_, err := NewRectangle([]float64{0, 0}, []float64{1, 2})
	require.NoError(t, err)

	_, err = NewRectangle(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidBox)

	_, err = NewRectangle([]float64{0}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidBox)

	_, err = NewRectangle([]float64{3}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidBox)
}

func TestSplitVolumeAdditivity(t *testing.T) {
	boxes := []Rectangle{
		{Low: []float64{0, 0, 0}, High: []float64{2, 2, 2}},
		{Low: []float64{-1, 3}, High: []float64{5, 3.7}},
		{Low: []float64{0.1}, High: []float64{0.9}},
	}
	for _, r := range boxes {
		for axis := 0; axis < r.Dims(); axis++ {
			lower, upper := r.Split(axis)
			assert.InDelta(t, r.Volume(), lower.Volume()+upper.Volume(), 1e-7)
		}
	}
}

func TestBoundingBoxContainsAllPoints(t *testing.T) {
	points := [][]float64{
		{0.5, 2.0},
		{-1.0, 7.3},
		{3.0, 0.0},
	}
	box, err := BoundingBox(points)
	require.NoError(t, err)
	for i, p := range points {
		assert.Truef(t, box.Contains(p), "bounding box misses point %d", i)
	}
	assert.Equal(t, []float64{-1.0, 0.0}, box.Low)
	assert.Equal(t, []float64{3.0, 7.3}, box.High)

	_, err = BoundingBox(nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestPointHasZeroVolume(t *testing.T) {
	p := Point([]float64{1.5, -2})
	assert.Zero(t, p.Volume())
	assert.True(t, p.Contains([]float64{1.5, -2}))
	assert.False(t, p.Contains([]float64{1.5, -1.9}))
}

func TestWidestAxisTieBreaksLow(t *testing.T) {
	r := Rectangle{Low: []float64{0, 0, 0}, High: []float64{2, 2, 2}}
	assert.Equal(t, 0, r.WidestAxis())
	r = Rectangle{Low: []float64{0, 0, 0}, High: []float64{1, 3, 3}}
	assert.Equal(t, 1, r.WidestAxis())
}
