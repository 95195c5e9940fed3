package models

import (
	"time"
)

// MissingValueStats is the missing-value record of a single column
type MissingValueStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MissingValues groups the per-column missing-value records
type MissingValues struct {
	TotalRows int                              `json:"total_rows"`
	Columns   map[ColumnName]MissingValueStats `json:"columns"`
}

// DuplicateStats describes duplicate rows
type DuplicateStats struct {
	TotalRows           int     `json:"total_rows"`
	UniqueRows          int     `json:"unique_rows"`
	DuplicateCount      int     `json:"duplicate_count"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
}

// OutlierStats is the IQR outlier record of a numeric column
type OutlierStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// NumericSummary describes a numeric column
type NumericSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// ValueCount is a categorical value and how often it occurs
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnStatistics holds descriptive statistics for a dataset
type ColumnStatistics struct {
	Numeric     map[ColumnName]NumericSummary `json:"numeric,omitempty"`
	Categorical map[ColumnName][]ValueCount   `json:"categorical,omitempty"`
}

// QualityReport is the immutable result of a quality check
type QualityReport struct {
	ID            string                      `json:"id"`
	DatasetID     string                      `json:"dataset_id"`
	ComputedAt    time.Time                   `json:"computed_at"`
	MissingValues MissingValues               `json:"missing_values"`
	Duplicates    DuplicateStats              `json:"duplicates"`
	Outliers      map[ColumnName]OutlierStats `json:"outliers"`
	DataTypes     map[ColumnName]ColumnType   `json:"data_types"`
	Statistics    ColumnStatistics            `json:"statistics"`
	Warnings      []string                    `json:"warnings,omitempty"`
}

// ColumnDriftResult is the drift record of a single column
type ColumnDriftResult struct {
	ColumnName ColumnName `json:"column_name"`
	TestType   string     `json:"test_type"`
	DriftScore float64    `json:"drift_score"`
	PValue     *float64   `json:"p_value"`
	HasDrift   bool       `json:"has_drift"`

	PSIScore      *float64 `json:"psi_score,omitempty"`
	ReferenceMean *float64 `json:"reference_mean,omitempty"`
	TargetMean    *float64 `json:"target_mean,omitempty"`
	ReferenceStd  *float64 `json:"reference_std,omitempty"`
	TargetStd     *float64 `json:"target_std,omitempty"`

	ReferenceUniqueValues *int `json:"reference_unique_values,omitempty"`
	TargetUniqueValues    *int `json:"target_unique_values,omitempty"`
}

// DriftTestResults aggregates the per-column outcomes
type DriftTestResults struct {
	TotalColumnsTested int     `json:"total_columns_tested"`
	ColumnsWithDrift   int     `json:"columns_with_drift"`
	ColumnsSkipped     int     `json:"columns_skipped"`
	Threshold          float64 `json:"threshold"`
}

// SkippedColumn is a column left out of the drift comparison
type SkippedColumn struct {
	ColumnName ColumnName `json:"column_name"`
	Reason     string     `json:"reason"`
}

// DriftReport is the immutable result of a drift check
type DriftReport struct {
	ID                 string                           `json:"id"`
	ReferenceDatasetID string                           `json:"reference_dataset_id"`
	TargetDatasetID    string                           `json:"target_dataset_id"`
	ReportDate         time.Time                        `json:"report_date"`
	DriftDetected      bool                             `json:"drift_detected"`
	OverallDriftScore  float64                          `json:"overall_drift_score"`
	TestResults        DriftTestResults                 `json:"test_results"`
	ColumnDrift        map[ColumnName]ColumnDriftResult `json:"column_drift"`
	SkippedColumns     []SkippedColumn                  `json:"skipped_columns,omitempty"`
}
