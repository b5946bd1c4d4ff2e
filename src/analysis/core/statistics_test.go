package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd([]float64{10, 9, 8, 7, 6})
	assert.Equal(t, 8.0, mean)
	assert.InDelta(t, math.Sqrt2, std, 1e-12)

	mean, std = CalculateMeanStd([]float64{4})
	assert.Equal(t, 4.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = CalculateMeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestCalculateSlope(t *testing.T) {
	assert.InDelta(t, -1.0, CalculateSlope([]float64{10, 9, 8, 7, 6}), 1e-12)
	assert.InDelta(t, 0.5, CalculateSlope([]float64{1, 1.5, 2}), 1e-12)
	assert.Equal(t, 0.0, CalculateSlope([]float64{3, 3, 3, 3}))
	assert.Equal(t, 0.0, CalculateSlope([]float64{7}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 100))
	assert.Equal(t, 100.0, Clamp(250, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
}

func TestComputeSummary(t *testing.T) {
	s := ComputeSummary([]float64{3, 1, 4, 1, 5})
	assert.Equal(t, SeriesSummary{First: 3, Last: 5, Min: 1, Max: 5, Sum: 14, Mean: 2.8, Count: 5}, s)
	assert.Equal(t, SeriesSummary{}, ComputeSummary(nil))

	assert.InDelta(t, 0.25, CalculateChangePercent(125, 100), 1e-12)
	assert.Equal(t, 0.0, CalculateChangePercent(5, 0))
}
