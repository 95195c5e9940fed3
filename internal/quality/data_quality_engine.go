package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/processors/pool"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// DataQualityEngine computes missing-value, duplicate and outlier statistics
// for a single dataset
type DataQualityEngine struct {
	logger *logrus.Logger
	config *QualityConfig
	pool   *pool.Pool
}

// QualityConfig configures the data quality engine
type QualityConfig struct {
	IQRMultiplier           float64 `json:"iqr_multiplier" mapstructure:"iqr_multiplier"`
	MinOutlierSamples       int     `json:"min_outlier_samples" mapstructure:"min_outlier_samples"`
	CategoricalSummaryLimit int     `json:"categorical_summary_limit" mapstructure:"categorical_summary_limit"`
	TopValues               int     `json:"top_values" mapstructure:"top_values"`
	Workers                 int     `json:"workers" mapstructure:"workers"`
}

// Result is the outcome of a quality check before it is assembled into a report
type Result struct {
	DatasetID     string
	MissingValues models.MissingValues
	Duplicates    models.DuplicateStats
	Outliers      map[models.ColumnName]models.OutlierStats
	DataTypes     map[models.ColumnName]models.ColumnType
	Statistics    models.ColumnStatistics
	Warnings      []string
}

// DefaultQualityConfig returns the default engine configuration
func DefaultQualityConfig() *QualityConfig {
	return &QualityConfig{
		IQRMultiplier:           constants.DefaultIQRMultiplier,
		MinOutlierSamples:       constants.MinOutlierSamples,
		CategoricalSummaryLimit: constants.DefaultCategoricalSummaryLimit,
		TopValues:               constants.DefaultTopValues,
	}
}

// NewDataQualityEngine creates a new data quality engine
func NewDataQualityEngine(config *QualityConfig, logger *logrus.Logger) *DataQualityEngine {
	cfg := DefaultQualityConfig()
	if config != nil {
		copied := *config
		cfg = &copied
	}
	config = cfg

	if config.IQRMultiplier <= 0 {
		config.IQRMultiplier = constants.DefaultIQRMultiplier
	}
	if config.MinOutlierSamples <= 0 {
		config.MinOutlierSamples = constants.MinOutlierSamples
	}
	if config.TopValues <= 0 {
		config.TopValues = constants.DefaultTopValues
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &DataQualityEngine{
		logger: logger,
		config: config,
		pool:   pool.New(config.Workers, logger),
	}
}

// Check runs the quality check for one dataset
func (dqe *DataQualityEngine) Check(ctx context.Context, ds *models.Dataset) (*Result, error) {
	start := time.Now()

	if err := validateDataset(ds); err != nil {
		return nil, err
	}

	totalRows := len(ds.Rows)
	result := &Result{
		DatasetID: ds.ID,
		MissingValues: models.MissingValues{
			TotalRows: totalRows,
			Columns:   make(map[models.ColumnName]models.MissingValueStats, len(ds.Columns)),
		},
		Outliers:  make(map[models.ColumnName]models.OutlierStats),
		DataTypes: make(map[models.ColumnName]models.ColumnType, len(ds.Columns)),
		Statistics: models.ColumnStatistics{
			Numeric:     make(map[models.ColumnName]models.NumericSummary),
			Categorical: make(map[models.ColumnName][]models.ValueCount),
		},
	}

	if totalRows == 0 {
		result.Warnings = append(result.Warnings, "degenerate dataset: zero rows, all percentages reported as 0")
		dqe.logger.WithField("dataset_id", ds.ID).Warn("Quality check on dataset with zero rows")
	}
	for _, col := range ds.AllMissingColumns {
		result.Warnings = append(result.Warnings, fmt.Sprintf("column '%s' has no non-missing values", col))
	}

	summarize := categoricalSummaryColumns(ds, dqe.config.CategoricalSummaryLimit)
	profiles := make([]*columnProfile, len(ds.Columns))

	err := dqe.pool.Run(ctx, len(ds.Columns), func(ctx context.Context, i int) error {
		col := ds.Columns[i]
		profile, err := dqe.profileColumn(ds, col, summarize[col])
		if err != nil {
			return err
		}
		profiles[i] = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, col := range ds.Columns {
		p := profiles[i]
		result.DataTypes[col] = ds.Schema[col]
		result.MissingValues.Columns[col] = p.missing
		if p.outliers != nil {
			result.Outliers[col] = *p.outliers
		}
		if p.numeric != nil {
			result.Statistics.Numeric[col] = *p.numeric
		}
		if p.topValues != nil {
			result.Statistics.Categorical[col] = p.topValues
		}
	}

	result.Duplicates = countDuplicates(ds)

	dqe.logger.WithFields(logrus.Fields{
		"dataset_id":      ds.ID,
		"columns":         len(ds.Columns),
		"rows":            totalRows,
		"duplicate_count": result.Duplicates.DuplicateCount,
		"outlier_columns": len(result.Outliers),
		"duration":        time.Since(start),
	}).Info("Data quality check completed")

	return result, nil
}

// validateDataset rejects nil, column-less or schema-less datasets
func validateDataset(ds *models.Dataset) error {
	if ds == nil {
		return errors.NewInvalidDatasetError("dataset is nil")
	}
	if len(ds.Columns) == 0 {
		return errors.NewInvalidDatasetError(fmt.Sprintf("dataset '%s' has zero columns", ds.ID))
	}
	for _, col := range ds.Columns {
		colType, ok := ds.Schema[col]
		if !ok {
			return errors.NewInvalidDatasetError(fmt.Sprintf("dataset '%s' has no schema entry for column '%s'", ds.ID, col))
		}
		if err := colType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// categoricalSummaryColumns picks the first limit categorical columns in column order
func categoricalSummaryColumns(ds *models.Dataset, limit int) map[models.ColumnName]bool {
	selected := make(map[models.ColumnName]bool)
	for _, col := range ds.Columns {
		if limit > 0 && len(selected) >= limit {
			break
		}
		if ds.Schema[col] == models.ColumnTypeCategorical {
			selected[col] = true
		}
	}
	return selected
}
