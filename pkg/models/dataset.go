package models

import (
	"time"
)

// Dataset is an ingested table. Rows are read-only once ingested.
type Dataset struct {
	ID                string                    `json:"id"`
	Filename          string                    `json:"filename"`
	Columns           []ColumnName              `json:"columns"`
	Rows              []Row                     `json:"rows"`
	Schema            map[ColumnName]ColumnType `json:"schema"`
	AllMissingColumns []ColumnName              `json:"all_missing_columns,omitempty"`
	RowCount          int                       `json:"row_count"`
	ColumnCount       int                       `json:"column_count"`
	FileSize          int64                     `json:"file_size"`
	UploadDate        time.Time                 `json:"upload_date"`
}

// DatasetSummary is a dataset without its rows, used for listings
type DatasetSummary struct {
	ID          string                    `json:"id"`
	Filename    string                    `json:"filename"`
	Columns     []ColumnName              `json:"columns"`
	Schema      map[ColumnName]ColumnType `json:"schema"`
	RowCount    int                       `json:"row_count"`
	ColumnCount int                       `json:"column_count"`
	FileSize    int64                     `json:"file_size"`
	UploadDate  time.Time                 `json:"upload_date"`
}

// Summary returns the listing view of the dataset
func (d *Dataset) Summary() *DatasetSummary {
	cols := make([]ColumnName, len(d.Columns))
	copy(cols, d.Columns)
	schema := make(map[ColumnName]ColumnType, len(d.Schema))
	for k, v := range d.Schema {
		schema[k] = v
	}
	return &DatasetSummary{
		ID:          d.ID,
		Filename:    d.Filename,
		Columns:     cols,
		Schema:      schema,
		RowCount:    d.RowCount,
		ColumnCount: d.ColumnCount,
		FileSize:    d.FileSize,
		UploadDate:  d.UploadDate,
	}
}

// HasColumn reports whether the dataset declares the column
func (d *Dataset) HasColumn(col ColumnName) bool {
	_, ok := d.Schema[col]
	return ok
}

// ColumnValues returns the non-missing trimmed values of a column in row order
func (d *Dataset) ColumnValues(col ColumnName) []string {
	values := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		if v, ok := row.Value(col); ok {
			values = append(values, v)
		}
	}
	return values
}
