package tests

import (
	"errors"
	"fmt"
	"math"

	mathutil "github.com/inferloop/datadrift/internal/utils/math"
)

// KSTestResult contains detailed results of the two-sample Kolmogorov-Smirnov test
type KSTestResult struct {
	*StatisticalTestResult
	SampleSize1        int     `json:"sample_size_1"`
	SampleSize2        int     `json:"sample_size_2"`
	MaxDifference      float64 `json:"max_difference"`
	DifferenceLocation float64 `json:"difference_location"`
}

// Series tolerances for the Kolmogorov distribution tail sum
const (
	ksRelativeTermEps = 0.001
	ksAbsoluteSumEps  = 1.0e-8
	ksMaxTerms        = 100
)

// MaxExactKSSampleSize is the largest sample for which the two-sample test
// uses the exact null distribution instead of the asymptotic one.
const MaxExactKSSampleSize = 10000

// TwoSampleKSTest performs the two-sample Kolmogorov-Smirnov test
func TwoSampleKSTest(sample1, sample2 []float64, alpha float64) (*KSTestResult, error) {
	if len(sample1) == 0 || len(sample2) == 0 {
		return nil, errors.New("Kolmogorov-Smirnov test requires non-empty samples")
	}

	result := performTwoSampleKSTest(sample1, sample2, alpha)
	if err := checkFinite(result.TestName, result.Statistic, *result.PValue); err != nil {
		return nil, err
	}

	return result, nil
}

// performTwoSampleKSTest is the core implementation for two-sample test
func performTwoSampleKSTest(sample1, sample2 []float64, alpha float64) *KSTestResult {
	n1, n2 := len(sample1), len(sample2)

	sorted1 := mathutil.Sorted(sample1)
	sorted2 := mathutil.Sorted(sample2)

	// Calculate maximum difference between empirical CDFs
	maxDiff, diffLocation := calculateTwoSampleKSStatistic(sorted1, sorted2)

	pValue := calculateTwoSampleKSPValue(maxDiff, n1, n2)
	isSignificant := pValue < alpha

	return &KSTestResult{
		StatisticalTestResult: &StatisticalTestResult{
			TestName:       "Two-Sample Kolmogorov-Smirnov Test",
			Statistic:      maxDiff,
			PValue:         float64Ptr(pValue),
			IsSignificant:  isSignificant,
			AlphaLevel:     alpha,
			Description:    "Tests whether two independent samples come from the same distribution",
			Interpretation: generateTwoSampleKSInterpretation(isSignificant, maxDiff, pValue, n1, n2),
		},
		SampleSize1:        n1,
		SampleSize2:        n2,
		MaxDifference:      maxDiff,
		DifferenceLocation: diffLocation,
	}
}

// calculateTwoSampleKSStatistic calculates the KS statistic for two sorted samples
func calculateTwoSampleKSStatistic(sorted1, sorted2 []float64) (float64, float64) {
	n1, n2 := len(sorted1), len(sorted2)
	var maxDiff float64
	var diffLocation float64

	i1, i2 := 0, 0

	for i1 < n1 || i2 < n2 {
		var x float64
		if i1 >= n1 {
			x = sorted2[i2]
		} else if i2 >= n2 {
			x = sorted1[i1]
		} else {
			x = math.Min(sorted1[i1], sorted2[i2])
		}

		// Step both empirical CDFs past every value equal to x
		for i1 < n1 && sorted1[i1] <= x {
			i1++
		}
		for i2 < n2 && sorted2[i2] <= x {
			i2++
		}

		cdf1 := float64(i1) / float64(n1)
		cdf2 := float64(i2) / float64(n2)
		diff := math.Abs(cdf1 - cdf2)

		if diff > maxDiff {
			maxDiff = diff
			diffLocation = x
		}
	}

	return maxDiff, diffLocation
}

// calculateTwoSampleKSPValue returns the two-sided p-value of dMax. Samples no
// larger than MaxExactKSSampleSize use the exact null distribution; larger
// ones use the asymptotic Kolmogorov distribution with the Stephens
// correction applied to the effective sample size.
func calculateTwoSampleKSPValue(dMax float64, n1, n2 int) float64 {
	if dMax <= 0 {
		return 1.0
	}

	if n1 <= MaxExactKSSampleSize && n2 <= MaxExactKSSampleSize {
		return exactTwoSampleKSPValue(dMax, n1, n2)
	}

	ne := float64(n1) * float64(n2) / float64(n1+n2)
	sqrtNe := math.Sqrt(ne)
	lambda := (sqrtNe + 0.12 + 0.11/sqrtNe) * dMax

	return kolmogorovSurvival(lambda)
}

// exactTwoSampleKSPValue returns P(D >= d) under the null hypothesis. It walks
// the monotone lattice paths from (0, 0) to (n1, n2) and keeps, for each
// point, the share of paths that stayed strictly inside |i/n1 - j/n2| < d.
// Shares stay in [0, 1], so no binomial coefficient is ever formed.
func exactTwoSampleKSPValue(d float64, n1, n2 int) float64 {
	g := gcd(n1, n2)
	a, b := n1/g, n2/g

	// In units of 1/lcm(n1, n2) the band is |i*b - j*a| < h.
	h := int(math.Round(d * float64(a*n2)))
	if h == 0 {
		return 1.0
	}

	band := func(i int) (int, int) {
		lo := 0
		if y := i*b - h; y >= 0 {
			lo = y/a + 1
		}
		hi := (i*b + h - 1) / a
		if hi > n2 {
			hi = n2
		}
		return lo, hi
	}

	share := make([]float64, n2+1)
	lo, hi := band(0)
	for j := lo; j <= hi; j++ {
		share[j] = 1
	}

	for i := 1; i <= n1; i++ {
		nextLo, nextHi := band(i)
		if nextLo > nextHi {
			return 1.0
		}
		for j := lo; j < nextLo && j <= n2; j++ {
			share[j] = 0
		}
		for j := nextLo; j <= nextHi; j++ {
			below := 0.0
			if j > nextLo {
				below = share[j-1]
			}
			share[j] = (float64(i)*share[j] + float64(j)*below) / float64(i+j)
		}
		lo = nextLo
	}

	return math.Max(0, math.Min(1, 1-share[n2]))
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// kolmogorovSurvival evaluates Q(lambda) = 2 * sum_{k>=1} (-1)^(k-1) exp(-2 k^2 lambda^2).
// Returns 1 when the alternating series fails to converge, which only
// happens for very small lambda.
func kolmogorovSurvival(lambda float64) float64 {
	a2 := -2.0 * lambda * lambda
	fac := 2.0
	sum := 0.0
	termBefore := 0.0

	for k := 1; k <= ksMaxTerms; k++ {
		term := fac * math.Exp(a2*float64(k)*float64(k))
		sum += term
		if math.Abs(term) <= ksRelativeTermEps*termBefore || math.Abs(term) <= ksAbsoluteSumEps*sum {
			return math.Max(0, math.Min(1, sum))
		}
		fac = -fac
		termBefore = math.Abs(term)
	}

	return 1.0
}

// generateTwoSampleKSInterpretation creates interpretation for two-sample test
func generateTwoSampleKSInterpretation(isSignificant bool, maxDiff, pValue float64, n1, n2 int) string {
	if isSignificant {
		return fmt.Sprintf("Reject null hypothesis: The two samples come from different distributions "+
			"(D = %.4f, p = %.4f, n1 = %d, n2 = %d)", maxDiff, pValue, n1, n2)
	}
	return fmt.Sprintf("Fail to reject null hypothesis: The two samples appear to come from the same distribution "+
		"(D = %.4f, p = %.4f, n1 = %d, n2 = %d)", maxDiff, pValue, n1, n2)
}
