package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStandardDeviation(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-12)
	assert.InDelta(t, 2.138089935, StandardDeviation(values), 1e-9)
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance([]float64{3}))
}

func TestQuantileMatchesLinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, Quantile(values, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-12)
	assert.InDelta(t, 3.25, Quantile(values, 0.75), 1e-12)
	assert.Equal(t, 1.0, Quantile(values, 0))
	assert.Equal(t, 4.0, Quantile(values, 1))
}

func TestOutlierBounds(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12, 11, 100}

	lower, upper := OutlierBounds(values, 1.5)
	q1, q3 := Quartiles(values)

	assert.LessOrEqual(t, lower, q1)
	assert.LessOrEqual(t, q1, q3)
	assert.LessOrEqual(t, q3, upper)
	assert.Equal(t, 1, CountOutside(values, lower, upper))
}

func TestCountOutsideIsStrict(t *testing.T) {
	assert.Equal(t, 0, CountOutside([]float64{1, 2, 3}, 1, 3))
	assert.Equal(t, 2, CountOutside([]float64{0, 2, 4}, 1, 3))
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{5}, Linspace(5, 9, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}

func TestRoundAndPercent(t *testing.T) {
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 100.0, Percent(10, 10))
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 1.23, Round(1.2349, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}
