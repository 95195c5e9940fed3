package drift

import (
	"fmt"

	"github.com/inferloop/datadrift/internal/schema"
	mathutil "github.com/inferloop/datadrift/internal/utils/math"
	"github.com/inferloop/datadrift/internal/validation/tests"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// testColumn dispatches on the cached column type
func (d *Detector) testColumn(reference, target *models.Dataset, col models.ColumnName, colType models.ColumnType) (columnOutcome, error) {
	refValues := reference.ColumnValues(col)
	targetValues := target.ColumnValues(col)

	if len(refValues) < d.config.MinSamples || len(targetValues) < d.config.MinSamples {
		return columnOutcome{skipReason: constants.SkipInsufficientSamples}, nil
	}

	var (
		result *models.ColumnDriftResult
		err    error
	)
	switch colType {
	case models.ColumnTypeNumeric, models.ColumnTypeDatetime:
		var refNums, targetNums []float64
		if refNums, err = toNumbers(col, colType, refValues); err != nil {
			return columnOutcome{}, err
		}
		if targetNums, err = toNumbers(col, colType, targetValues); err != nil {
			return columnOutcome{}, err
		}
		result, err = d.ksColumn(col, refNums, targetNums)
	case models.ColumnTypeCategorical:
		result, err = d.chiSquareColumn(col, refValues, targetValues)
	default:
		return columnOutcome{}, errors.NewUnsupportedTypeError(fmt.Sprintf("column '%s' has type '%s'", col, colType))
	}
	if err != nil {
		return columnOutcome{}, errors.NewComputationError(err.Error()).WithContext("column", col)
	}

	return columnOutcome{result: result}, nil
}

// toNumbers parses numeric values directly and datetimes as epoch seconds
func toNumbers(col models.ColumnName, colType models.ColumnType, values []string) ([]float64, error) {
	numbers := make([]float64, len(values))
	for i, v := range values {
		if colType == models.ColumnTypeDatetime {
			ts, ok := schema.ParseDateTime(v)
			if !ok {
				return nil, errors.NewInvalidDatasetError(fmt.Sprintf("value %q in datetime column '%s' does not parse", v, col))
			}
			numbers[i] = schema.EpochSeconds(ts)
			continue
		}
		f, ok := schema.ParseNumber(v)
		if !ok {
			return nil, errors.NewInvalidDatasetError(fmt.Sprintf("value %q in numeric column '%s' is not a finite number", v, col))
		}
		numbers[i] = f
	}
	return numbers, nil
}

func (d *Detector) ksColumn(col models.ColumnName, reference, target []float64) (*models.ColumnDriftResult, error) {
	ks, err := d.suite.TwoSampleKS(reference, target)
	if err != nil {
		return nil, err
	}

	psi, err := tests.PopulationStabilityIndex(reference, target, d.config.psiConfig())
	if err != nil {
		return nil, err
	}

	pValue := *ks.PValue
	return &models.ColumnDriftResult{
		ColumnName:    col,
		TestType:      constants.TestKolmogorovSmirnov,
		DriftScore:    ks.Statistic,
		PValue:        &pValue,
		HasDrift:      pValue < d.config.SignificanceLevel || ks.Statistic > d.config.KSScoreThreshold,
		PSIScore:      float64Ptr(psi),
		ReferenceMean: float64Ptr(mathutil.Mean(reference)),
		TargetMean:    float64Ptr(mathutil.Mean(target)),
		ReferenceStd:  float64Ptr(mathutil.StandardDeviation(reference)),
		TargetStd:     float64Ptr(mathutil.StandardDeviation(target)),
	}, nil
}

func (d *Detector) chiSquareColumn(col models.ColumnName, reference, target []string) (*models.ColumnDriftResult, error) {
	chi, err := d.suite.ChiSquare(reference, target)
	if err != nil {
		return nil, err
	}

	score := chi.NormalizedStatistic()
	hasDrift := score > d.config.ChiSquareScoreThreshold
	if chi.PValue != nil && *chi.PValue < d.config.SignificanceLevel {
		hasDrift = true
	}

	refUnique, targetUnique := chi.UniqueSample1, chi.UniqueSample2
	return &models.ColumnDriftResult{
		ColumnName:            col,
		TestType:              constants.TestChiSquare,
		DriftScore:            score,
		PValue:                chi.PValue,
		HasDrift:              hasDrift,
		ReferenceUniqueValues: &refUnique,
		TargetUniqueValues:    &targetUnique,
	}, nil
}

func float64Ptr(v float64) *float64 {
	return &v
}
