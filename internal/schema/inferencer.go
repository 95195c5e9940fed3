package schema

import (
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/pkg/models"
)

// Result is the inferred schema of a table
type Result struct {
	Types      map[models.ColumnName]models.ColumnType
	AllMissing []models.ColumnName
}

// Inferencer classifies columns as numeric, datetime or categorical
type Inferencer struct {
	logger *logrus.Logger
}

// NewInferencer creates a new schema inferencer
func NewInferencer(logger *logrus.Logger) *Inferencer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Inferencer{logger: logger}
}

// candidate tracks which types a column can still be
type candidate struct {
	numeric  bool
	datetime bool
	seen     int
}

func (c *candidate) record(v string) {
	c.seen++

	if c.numeric {
		if _, ok := ParseNumber(v); ok {
			return
		}
		c.numeric = false
	}

	if c.datetime {
		if _, ok := ParseDateTime(v); !ok {
			c.datetime = false
		}
	}
}

func (c *candidate) resolve() models.ColumnType {
	switch {
	case c.seen == 0:
		return models.ColumnTypeCategorical
	case c.numeric:
		return models.ColumnTypeNumeric
	case c.datetime:
		return models.ColumnTypeDatetime
	default:
		return models.ColumnTypeCategorical
	}
}

// Infer classifies every column from the non-missing values of rows
func (i *Inferencer) Infer(columns []models.ColumnName, rows []models.Row) *Result {
	result := &Result{
		Types: make(map[models.ColumnName]models.ColumnType, len(columns)),
	}

	for _, col := range columns {
		c := &candidate{numeric: true, datetime: true}
		for _, row := range rows {
			v, ok := row.Value(col)
			if !ok {
				continue
			}
			c.record(v)
			if !c.numeric && !c.datetime {
				break
			}
		}

		result.Types[col] = c.resolve()
		if c.seen == 0 {
			result.AllMissing = append(result.AllMissing, col)
			i.logger.WithFields(logrus.Fields{
				"column": col,
				"rows":   len(rows),
			}).Warn("Column has no non-missing values, classified as categorical")
		}
	}

	return result
}

// Apply infers the schema of a dataset and caches it on the dataset
func (i *Inferencer) Apply(ds *models.Dataset) {
	result := i.Infer(ds.Columns, ds.Rows)
	ds.Schema = result.Types
	ds.AllMissingColumns = result.AllMissing
	ds.RowCount = len(ds.Rows)
	ds.ColumnCount = len(ds.Columns)

	i.logger.WithFields(logrus.Fields{
		"dataset_id": ds.ID,
		"columns":    ds.ColumnCount,
		"rows":       ds.RowCount,
	}).Debug("Inferred dataset schema")
}
