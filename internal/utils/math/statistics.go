package math

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Variance calculates the sample variance (n-1 denominator)
func Variance(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	return stat.Variance(values, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Sorted returns a sorted copy of values
func Sorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// SortedQuantile returns the q-th quantile (0..1) of already sorted values
// using linear interpolation between closest ranks: index = q*(n-1).
func SortedQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// Percentile calculates the p-th percentile (0..100) of a slice of values
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 || p < 0 || p > 100 {
		return 0
	}
	return SortedQuantile(Sorted(values), p/100.0)
}

// Quantile calculates the q-th quantile (0..1) of a slice of values
func Quantile(values []float64, q float64) float64 {
	return Percentile(values, q*100)
}

// Quartiles returns Q1 and Q3 of a slice of values
func Quartiles(values []float64) (q1, q3 float64) {
	sorted := Sorted(values)
	return SortedQuantile(sorted, 0.25), SortedQuantile(sorted, 0.75)
}

// IQR calculates the Interquartile Range (Q3 - Q1)
func IQR(values []float64) float64 {
	q1, q3 := Quartiles(values)
	return q3 - q1
}

// OutlierBounds calculates the fences q1 - k*IQR and q3 + k*IQR
func OutlierBounds(values []float64, multiplier float64) (lower, upper float64) {
	q1, q3 := Quartiles(values)
	iqr := q3 - q1

	lower = q1 - multiplier*iqr
	upper = q3 + multiplier*iqr
	return lower, upper
}

// CountOutside counts values strictly below lower or strictly above upper
func CountOutside(values []float64, lower, upper float64) int {
	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// MinMax returns the smallest and largest value
func MinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}

// Linspace returns n evenly spaced points over [start, end]
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, end)
}

// Round rounds x half away from zero to the given number of decimals
func Round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

// Percent returns part/total*100 rounded to two decimals, or 0 when total is 0
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round(float64(part)/float64(total)*100, 2)
}

// IsFinite reports whether x is neither NaN nor infinite
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
