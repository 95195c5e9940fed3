package tests

import (
	"errors"
	"math"
	"sort"

	mathutil "github.com/inferloop/datadrift/internal/utils/math"
)

// PSIConfig controls the Population Stability Index computation
type PSIConfig struct {
	Bins      int     `json:"bins"`
	Smoothing float64 `json:"smoothing"`
}

// DefaultPSIConfig returns ten bins with 1e-4 smoothing
func DefaultPSIConfig() PSIConfig {
	return PSIConfig{Bins: 10, Smoothing: 0.0001}
}

// PopulationStabilityIndex compares the distribution of target against
// reference over equal-width bins spanning the reference range. The outer
// bins are open so target values outside that range are still counted.
func PopulationStabilityIndex(reference, target []float64, config PSIConfig) (float64, error) {
	if len(reference) == 0 || len(target) == 0 {
		return 0, errors.New("population stability index requires non-empty samples")
	}
	if config.Bins < 1 {
		config = DefaultPSIConfig()
	}

	lo, hi := mathutil.MinMax(reference)
	edges := mathutil.Linspace(lo, hi, config.Bins+1)
	interior := edges[1 : len(edges)-1]

	refDist := binFractions(reference, interior, config.Bins)
	targetDist := binFractions(target, interior, config.Bins)

	psi := 0.0
	for i := range refDist {
		r := refDist[i] + config.Smoothing
		t := targetDist[i] + config.Smoothing
		psi += (t - r) * math.Log(t/r)
	}

	if err := checkFinite("Population Stability Index", psi); err != nil {
		return 0, err
	}
	return psi, nil
}

// binFractions assigns each value to the bin [e_i, e_i+1) and returns the
// share of values per bin.
func binFractions(values, interior []float64, bins int) []float64 {
	counts := make([]float64, bins)
	for _, v := range values {
		idx := sort.Search(len(interior), func(j int) bool { return interior[j] > v })
		counts[idx]++
	}
	n := float64(len(values))
	for i := range counts {
		counts[i] /= n
	}
	return counts
}
