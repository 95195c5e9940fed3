package quality

import (
	"fmt"
	"sort"

	"github.com/inferloop/datadrift/internal/schema"
	mathutil "github.com/inferloop/datadrift/internal/utils/math"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// columnProfile holds the per-column results of a quality check
type columnProfile struct {
	missing   models.MissingValueStats
	outliers  *models.OutlierStats
	numeric   *models.NumericSummary
	topValues []models.ValueCount
}

func (dqe *DataQualityEngine) profileColumn(ds *models.Dataset, col models.ColumnName, summarize bool) (*columnProfile, error) {
	values := ds.ColumnValues(col)
	missing := len(ds.Rows) - len(values)

	profile := &columnProfile{
		missing: models.MissingValueStats{
			Count:      missing,
			Percentage: mathutil.Percent(missing, len(ds.Rows)),
		},
	}

	switch ds.Schema[col] {
	case models.ColumnTypeNumeric:
		numbers, err := parseNumbers(col, values)
		if err != nil {
			return nil, err
		}
		if len(numbers) > 0 {
			profile.numeric = describe(numbers)
		}
		if len(numbers) >= dqe.config.MinOutlierSamples {
			profile.outliers = dqe.detectOutliers(numbers)
		} else {
			dqe.logger.WithField("column", col).Debug("Skipping outlier detection, insufficient values")
		}
	case models.ColumnTypeCategorical:
		if summarize {
			profile.topValues = topValues(values, dqe.config.TopValues)
		}
	}

	return profile, nil
}

func parseNumbers(col models.ColumnName, values []string) ([]float64, error) {
	numbers := make([]float64, len(values))
	for i, v := range values {
		f, ok := schema.ParseNumber(v)
		if !ok {
			return nil, errors.NewInvalidDatasetError(
				fmt.Sprintf("value %q in numeric column '%s' is not a finite number", v, col))
		}
		numbers[i] = f
	}
	return numbers, nil
}

// detectOutliers applies the IQR rule; percentage is relative to the
// column's non-missing values
func (dqe *DataQualityEngine) detectOutliers(numbers []float64) *models.OutlierStats {
	lower, upper := mathutil.OutlierBounds(numbers, dqe.config.IQRMultiplier)
	count := mathutil.CountOutside(numbers, lower, upper)

	return &models.OutlierStats{
		Count:      count,
		Percentage: mathutil.Percent(count, len(numbers)),
		LowerBound: lower,
		UpperBound: upper,
	}
}

func describe(numbers []float64) *models.NumericSummary {
	sorted := mathutil.Sorted(numbers)
	return &models.NumericSummary{
		Count: len(sorted),
		Mean:  mathutil.Mean(sorted),
		Std:   mathutil.StandardDeviation(sorted),
		Min:   sorted[0],
		Q25:   mathutil.SortedQuantile(sorted, 0.25),
		Q50:   mathutil.SortedQuantile(sorted, 0.5),
		Q75:   mathutil.SortedQuantile(sorted, 0.75),
		Max:   sorted[len(sorted)-1],
	}
}

// topValues returns the n most frequent values, ties broken by value
func topValues(values []string, n int) []models.ValueCount {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	out := make([]models.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, models.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
