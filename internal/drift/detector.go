package drift

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/processors/pool"
	mathutil "github.com/inferloop/datadrift/internal/utils/math"
	"github.com/inferloop/datadrift/internal/validation/tests"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// Detector compares a reference dataset with a target dataset column by column
type Detector struct {
	logger *logrus.Logger
	config *DriftConfig
	suite  *tests.StatisticalTestSuite
	pool   *pool.Pool
}

// Result is the outcome of a drift check before it is assembled into a report
type Result struct {
	ReferenceDatasetID string
	TargetDatasetID    string
	DriftDetected      bool
	OverallDriftScore  float64
	TestResults        models.DriftTestResults
	TestedColumns      []models.ColumnName
	ColumnDrift        map[models.ColumnName]models.ColumnDriftResult
	SkippedColumns     []models.SkippedColumn
}

// NewDetector creates a new drift detector
func NewDetector(config *DriftConfig, logger *logrus.Logger) *Detector {
	cfg := DefaultDriftConfig()
	if config != nil {
		copied := *config
		cfg = &copied
	}
	cfg.normalize()
	config = cfg

	if logger == nil {
		logger = logrus.New()
	}

	return &Detector{
		logger: logger,
		config: config,
		suite:  tests.NewStatisticalTestSuite(config.SignificanceLevel),
		pool:   pool.New(config.Workers, logger),
	}
}

// Config returns the detector configuration
func (d *Detector) Config() DriftConfig {
	return *d.config
}

// columnOutcome is the result slot written by a single column task
type columnOutcome struct {
	result     *models.ColumnDriftResult
	skipReason string
}

// Detect runs the drift check between reference and target
func (d *Detector) Detect(ctx context.Context, reference, target *models.Dataset) (*Result, error) {
	start := time.Now()

	if err := validateDataset("reference", reference); err != nil {
		return nil, err
	}
	if err := validateDataset("target", target); err != nil {
		return nil, err
	}

	candidates, skipReasons, targetOnly := d.selectColumns(reference, target)

	outcomes := make([]columnOutcome, len(candidates))
	err := d.pool.Run(ctx, len(candidates), func(ctx context.Context, i int) error {
		col := candidates[i]
		outcome, err := d.testColumn(reference, target, col, reference.Schema[col])
		if err != nil {
			return err
		}
		outcomes[i] = outcome
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, col := range candidates {
		if outcomes[i].skipReason != "" {
			skipReasons[col] = outcomes[i].skipReason
			d.logSkip(col, outcomes[i].skipReason)
		}
	}

	result := &Result{
		ReferenceDatasetID: reference.ID,
		TargetDatasetID:    target.ID,
		ColumnDrift:        make(map[models.ColumnName]models.ColumnDriftResult, len(candidates)),
	}

	scoreSum := 0.0
	for i, col := range candidates {
		r := outcomes[i].result
		if r == nil {
			continue
		}
		result.TestedColumns = append(result.TestedColumns, col)
		result.ColumnDrift[col] = *r
		scoreSum += r.DriftScore
		if r.HasDrift {
			result.TestResults.ColumnsWithDrift++
		}
	}

	for _, col := range reference.Columns {
		if reason, ok := skipReasons[col]; ok {
			result.SkippedColumns = append(result.SkippedColumns, models.SkippedColumn{ColumnName: col, Reason: reason})
		}
	}
	for _, col := range targetOnly {
		result.SkippedColumns = append(result.SkippedColumns, models.SkippedColumn{
			ColumnName: col,
			Reason:     constants.SkipMissingInReference,
		})
	}

	tested := len(result.TestedColumns)
	result.TestResults.TotalColumnsTested = tested
	result.TestResults.ColumnsSkipped = len(result.SkippedColumns)
	result.TestResults.Threshold = d.config.SignificanceLevel

	if tested == 0 {
		return nil, errors.NewEmptyIntersectionError(fmt.Sprintf(
			"no comparable columns between '%s' and '%s' (%d skipped)",
			reference.ID, target.ID, len(result.SkippedColumns)))
	}

	result.OverallDriftScore = scoreSum / float64(tested)
	if !mathutil.IsFinite(result.OverallDriftScore) {
		return nil, errors.NewComputationError("overall drift score is not finite")
	}

	driftShare := float64(result.TestResults.ColumnsWithDrift) / float64(tested)
	result.DriftDetected = driftShare > d.config.DriftShareThreshold ||
		result.OverallDriftScore > d.config.OverallScoreThreshold

	d.logger.WithFields(logrus.Fields{
		"reference_id":        reference.ID,
		"target_id":           target.ID,
		"columns_tested":      tested,
		"columns_with_drift":  result.TestResults.ColumnsWithDrift,
		"columns_skipped":     result.TestResults.ColumnsSkipped,
		"overall_drift_score": result.OverallDriftScore,
		"drift_detected":      result.DriftDetected,
		"duration":            time.Since(start),
	}).Info("Drift check completed")

	return result, nil
}

// selectColumns returns the candidate columns in reference order, skip
// reasons for reference columns that cannot be compared, and the columns
// that only exist in the target
func (d *Detector) selectColumns(reference, target *models.Dataset) ([]models.ColumnName, map[models.ColumnName]string, []models.ColumnName) {
	var candidates []models.ColumnName
	skipReasons := make(map[models.ColumnName]string)

	for _, col := range reference.Columns {
		targetType, ok := target.Schema[col]
		switch {
		case !ok:
			skipReasons[col] = constants.SkipMissingInTarget
		case targetType != reference.Schema[col]:
			skipReasons[col] = constants.SkipTypeMismatch
		default:
			candidates = append(candidates, col)
			continue
		}
		d.logSkip(col, skipReasons[col])
	}

	var targetOnly []models.ColumnName
	for _, col := range target.Columns {
		if !reference.HasColumn(col) {
			targetOnly = append(targetOnly, col)
			d.logSkip(col, constants.SkipMissingInReference)
		}
	}

	return candidates, skipReasons, targetOnly
}

func (d *Detector) logSkip(col models.ColumnName, reason string) {
	d.logger.WithFields(logrus.Fields{
		"column": col,
		"reason": reason,
	}).Debug("Column excluded from drift comparison")
}

// validateDataset rejects nil, empty or schema-less datasets
func validateDataset(role string, ds *models.Dataset) error {
	if ds == nil {
		return errors.NewInvalidDatasetError(role + " dataset is nil")
	}
	if len(ds.Columns) == 0 {
		return errors.NewInvalidDatasetError(fmt.Sprintf("%s dataset '%s' has zero columns", role, ds.ID))
	}
	if len(ds.Rows) == 0 {
		return errors.NewInvalidDatasetError(fmt.Sprintf("%s dataset '%s' has zero rows", role, ds.ID))
	}
	for _, col := range ds.Columns {
		colType, ok := ds.Schema[col]
		if !ok {
			return errors.NewInvalidDatasetError(fmt.Sprintf("%s dataset '%s' has no schema entry for column '%s'", role, ds.ID, col))
		}
		if err := colType.Validate(); err != nil {
			return err
		}
	}
	return nil
}
