package tests

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareTestResult contains the results of a 2xk chi-square test of independence
type ChiSquareTestResult struct {
	*StatisticalTestResult
	Categories       []string `json:"categories"`
	ObservedSample1  []int    `json:"observed_sample_1"`
	ObservedSample2  []int    `json:"observed_sample_2"`
	DegreesOfFreedom int      `json:"degrees_of_freedom"`
	SampleSize       int      `json:"sample_size"`
	UniqueSample1    int      `json:"unique_sample_1"`
	UniqueSample2    int      `json:"unique_sample_2"`
}

// NormalizedStatistic returns the statistic divided by the total sample size
func (r *ChiSquareTestResult) NormalizedStatistic() float64 {
	if r.SampleSize == 0 {
		return 0
	}
	return r.Statistic / float64(r.SampleSize)
}

// ChiSquareIndependenceTest builds the contingency table of category counts
// for both samples and tests whether the category distribution depends on
// the sample. Categories missing from one sample contribute zero cells.
// With a single category the test is undefined and the p-value is nil.
func ChiSquareIndependenceTest(sample1, sample2 []string, alpha float64) (*ChiSquareTestResult, error) {
	if len(sample1) == 0 || len(sample2) == 0 {
		return nil, errors.New("chi-square test requires non-empty samples")
	}

	counts1 := countCategories(sample1)
	counts2 := countCategories(sample2)
	categories := unionSorted(counts1, counts2)

	k := len(categories)
	observed1 := make([]int, k)
	observed2 := make([]int, k)
	for j, c := range categories {
		observed1[j] = counts1[c]
		observed2[j] = counts2[c]
	}

	n1, n2 := float64(len(sample1)), float64(len(sample2))
	total := n1 + n2

	result := &ChiSquareTestResult{
		StatisticalTestResult: &StatisticalTestResult{
			TestName:    "Chi-Square Test of Independence",
			AlphaLevel:  alpha,
			Description: "Tests whether category frequencies differ between two samples",
		},
		Categories:       categories,
		ObservedSample1:  observed1,
		ObservedSample2:  observed2,
		DegreesOfFreedom: k - 1,
		SampleSize:       len(sample1) + len(sample2),
		UniqueSample1:    len(counts1),
		UniqueSample2:    len(counts2),
	}

	if k < 2 {
		result.Interpretation = "Test undefined: both samples contain a single category"
		return result, nil
	}

	statistic := 0.0
	for j := 0; j < k; j++ {
		colTotal := float64(observed1[j] + observed2[j])
		expected1 := n1 * colTotal / total
		expected2 := n2 * colTotal / total

		d1 := float64(observed1[j]) - expected1
		d2 := float64(observed2[j]) - expected2
		statistic += d1*d1/expected1 + d2*d2/expected2
	}

	dist := distuv.ChiSquared{K: float64(k - 1)}
	pValue := dist.Survival(statistic)

	if err := checkFinite(result.TestName, statistic, pValue); err != nil {
		return nil, err
	}

	result.Statistic = statistic
	result.PValue = float64Ptr(pValue)
	result.IsSignificant = pValue < alpha
	result.Interpretation = generateChiSquareInterpretation(result.IsSignificant, statistic, pValue, k-1)

	return result, nil
}

func countCategories(sample []string) map[string]int {
	counts := make(map[string]int)
	for _, v := range sample {
		counts[v]++
	}
	return counts
}

func unionSorted(a, b map[string]int) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func generateChiSquareInterpretation(isSignificant bool, statistic, pValue float64, dof int) string {
	if isSignificant {
		return fmt.Sprintf("Reject null hypothesis: Category frequencies differ between samples "+
			"(chi2 = %.4f, p = %.4f, df = %d)", statistic, pValue, dof)
	}
	return fmt.Sprintf("Fail to reject null hypothesis: Category frequencies are consistent "+
		"(chi2 = %.4f, p = %.4f, df = %d)", statistic, pValue, dof)
}
