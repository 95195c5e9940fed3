package tests

import (
	"errors"
	"fmt"

	mathutil "github.com/inferloop/datadrift/internal/utils/math"
)

// ErrNonFinite is returned when a test produces a NaN or infinite value
var ErrNonFinite = errors.New("statistic or p-value is not finite")

// StatisticalTestResult represents the result of a statistical test
type StatisticalTestResult struct {
	TestName       string   `json:"test_name"`
	Statistic      float64  `json:"statistic"`
	PValue         *float64 `json:"p_value"`
	IsSignificant  bool     `json:"is_significant"`
	AlphaLevel     float64  `json:"alpha_level"`
	Description    string   `json:"description"`
	Interpretation string   `json:"interpretation"`
}

// StatisticalTestSuite runs two-sample comparison tests at a fixed significance level
type StatisticalTestSuite struct {
	alphaLevel float64
}

// NewStatisticalTestSuite creates a new statistical test suite
func NewStatisticalTestSuite(alphaLevel float64) *StatisticalTestSuite {
	if alphaLevel <= 0 || alphaLevel >= 1 {
		alphaLevel = 0.05 // Default 5% significance level
	}

	return &StatisticalTestSuite{
		alphaLevel: alphaLevel,
	}
}

// AlphaLevel returns the significance level used by the suite
func (sts *StatisticalTestSuite) AlphaLevel() float64 {
	return sts.alphaLevel
}

// TwoSampleKS runs the two-sample Kolmogorov-Smirnov test
func (sts *StatisticalTestSuite) TwoSampleKS(sample1, sample2 []float64) (*KSTestResult, error) {
	return TwoSampleKSTest(sample1, sample2, sts.alphaLevel)
}

// ChiSquare runs the chi-square test of independence on two category samples
func (sts *StatisticalTestSuite) ChiSquare(sample1, sample2 []string) (*ChiSquareTestResult, error) {
	return ChiSquareIndependenceTest(sample1, sample2, sts.alphaLevel)
}

func checkFinite(name string, values ...float64) error {
	for _, v := range values {
		if !mathutil.IsFinite(v) {
			return fmt.Errorf("%s: %w", name, ErrNonFinite)
		}
	}
	return nil
}

func float64Ptr(v float64) *float64 {
	return &v
}
