package l2frames

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarise_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarise(nil))
}

func TestSummarise_Single(t *testing.T) {
	s := Summarise([]PolarSample{{AngleDeg: 359.5, DistanceM: 2}})
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 2.0, s.MinDistanceM)
	assert.Equal(t, 2.0, s.MaxDistanceM)
	assert.Equal(t, 2.0, s.MeanDistanceM)
	assert.Zero(t, s.StdDistanceM)
	assert.Equal(t, 1, s.CoverageDeg)
}

func TestSummarise_Stats(t *testing.T) {
	samples := []PolarSample{
		{AngleDeg: 0.2, DistanceM: 1},
		{AngleDeg: 0.8, DistanceM: 2},
		{AngleDeg: 10.0, DistanceM: 3},
		{AngleDeg: 180.5, DistanceM: 4},
	}
	s := Summarise(samples)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.MinDistanceM)
	assert.Equal(t, 4.0, s.MaxDistanceM)
	assert.InDelta(t, 2.5, s.MeanDistanceM, 1e-12)
	// unbiased sample standard deviation of 1..4
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDistanceM, 1e-12)
	assert.Equal(t, 3, s.CoverageDeg)
}
