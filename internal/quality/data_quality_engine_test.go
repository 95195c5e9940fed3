package quality

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/internal/schema"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

func newDataset(t *testing.T, columns []models.ColumnName, rows []models.Row) *models.Dataset {
	t.Helper()
	ds := &models.Dataset{ID: "ds-test", Columns: columns, Rows: rows}
	schema.NewInferencer(logrus.New()).Apply(ds)
	return ds
}

func newEngine() *DataQualityEngine {
	return NewDataQualityEngine(nil, logrus.New())
}

func TestCheckFullyNullColumn(t *testing.T) {
	rows := make([]models.Row, 10)
	for i := range rows {
		rows[i] = models.Row{"id": fmt.Sprint(i), "notes": ""}
	}
	ds := newDataset(t, []models.ColumnName{"id", "notes"}, rows)

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, models.MissingValueStats{Count: 10, Percentage: 100.0}, result.MissingValues.Columns["notes"])
	assert.Equal(t, models.MissingValueStats{Count: 0, Percentage: 0}, result.MissingValues.Columns["id"])
	assert.Equal(t, 10, result.MissingValues.TotalRows)
	assert.Equal(t, models.ColumnTypeCategorical, result.DataTypes["notes"])
	assert.Contains(t, result.Warnings, "column 'notes' has no non-missing values")
}

func TestCheckMissingPercentages(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a"}, []models.Row{
		{"a": "1"}, {"a": "NA"}, {}, {"a": "4"}, {"a": "5"}, {"a": "6"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	stats := result.MissingValues.Columns["a"]
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 33.33, stats.Percentage)
	for _, s := range result.MissingValues.Columns {
		assert.GreaterOrEqual(t, s.Percentage, 0.0)
		assert.LessOrEqual(t, s.Percentage, 100.0)
	}
}

func TestCheckDuplicates(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a", "b"}, []models.Row{
		{"a": "1", "b": "x"},
		{"a": "1", "b": "x"},
		{"a": "2", "b": ""},
		{"a": "2"},
		{"a": "3", "b": "y"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, models.DuplicateStats{
		TotalRows:           5,
		UniqueRows:          3,
		DuplicateCount:      2,
		DuplicatePercentage: 40.0,
	}, result.Duplicates)
}

func TestCheckDuplicatesComparesRawCells(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a", "b"}, []models.Row{
		{"a": "a", "b": "1"},
		{"a": " a", "b": "1"},
		{"a": "a ", "b": "1"},
		{"a": "a", "b": "1"},
		{"a": "z", "b": "NA"},
		{"a": "z", "b": " null "},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Duplicates.DuplicateCount)
	assert.Equal(t, 4, result.Duplicates.UniqueRows)
}

func TestCheckAllDistinctRows(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a", "b"}, []models.Row{
		{"a": "1", "b": "12"},
		{"a": "11", "b": "2"},
		{"a": "1", "b": "2"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Duplicates.DuplicateCount)
	assert.LessOrEqual(t, result.Duplicates.DuplicateCount, len(ds.Rows)-1)
}

func TestRowKeyIsUnambiguous(t *testing.T) {
	columns := []models.ColumnName{"a", "b"}
	k1 := rowKey(models.Row{"a": "x|", "b": "y"}, columns)
	k2 := rowKey(models.Row{"a": "x", "b": "|y"}, columns)
	k3 := rowKey(models.Row{"b": "-"}, columns)
	k4 := rowKey(models.Row{"a": "-"}, columns)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k3, k4)
}

func TestCheckOutliers(t *testing.T) {
	values := []string{"10", "12", "11", "13", "12", "11", "100"}
	rows := make([]models.Row, len(values))
	for i, v := range values {
		rows[i] = models.Row{"x": v}
	}
	ds := newDataset(t, []models.ColumnName{"x"}, rows)

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	out, ok := result.Outliers["x"]
	require.True(t, ok)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 14.29, out.Percentage)

	summary := result.Statistics.Numeric["x"]
	assert.LessOrEqual(t, out.LowerBound, summary.Q25)
	assert.LessOrEqual(t, summary.Q25, summary.Q75)
	assert.LessOrEqual(t, summary.Q75, out.UpperBound)
	assert.Equal(t, 7, summary.Count)
	assert.Equal(t, 10.0, summary.Min)
	assert.Equal(t, 100.0, summary.Max)
}

func TestCheckNoOutliersWithinBounds(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"x"}, []models.Row{
		{"x": "1"}, {"x": "2"}, {"x": "3"}, {"x": "4"}, {"x": "5"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Outliers["x"].Count)
}

func TestCheckSkipsOutliersForSmallColumns(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"x", "label"}, []models.Row{
		{"x": "1", "label": "a"}, {"x": "2", "label": "b"}, {"x": "300", "label": "a"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	_, ok := result.Outliers["x"]
	assert.False(t, ok)
	_, ok = result.Outliers["label"]
	assert.False(t, ok)
}

func TestCheckCategoricalTopValues(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"city"}, []models.Row{
		{"city": "Paris"}, {"city": "Lyon"}, {"city": "Paris"}, {"city": "Nice"}, {"city": "Lyon"},
	})

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []models.ValueCount{
		{Value: "Lyon", Count: 2},
		{Value: "Paris", Count: 2},
		{Value: "Nice", Count: 1},
	}, result.Statistics.Categorical["city"])
}

func TestCheckCategoricalSummaryLimit(t *testing.T) {
	config := DefaultQualityConfig()
	config.CategoricalSummaryLimit = 1
	engine := NewDataQualityEngine(config, logrus.New())

	ds := newDataset(t, []models.ColumnName{"a", "b"}, []models.Row{{"a": "x", "b": "y"}})

	result, err := engine.Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Contains(t, result.Statistics.Categorical, models.ColumnName("a"))
	assert.NotContains(t, result.Statistics.Categorical, models.ColumnName("b"))
}

func TestCheckZeroRows(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a"}, nil)

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.MissingValues.Columns["a"].Percentage)
	assert.Equal(t, 0.0, result.Duplicates.DuplicatePercentage)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "degenerate dataset")
}

func TestCheckZeroColumns(t *testing.T) {
	_, err := newEngine().Check(context.Background(), &models.Dataset{ID: "empty"})
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))

	_, err = newEngine().Check(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
}

func TestCheckMissingSchemaEntry(t *testing.T) {
	ds := &models.Dataset{
		ID:      "no-schema",
		Columns: []models.ColumnName{"a"},
		Rows:    []models.Row{{"a": "1"}},
	}

	_, err := newEngine().Check(context.Background(), ds)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
}

func TestCheckUnsupportedType(t *testing.T) {
	ds := &models.Dataset{
		ID:      "bad-type",
		Columns: []models.ColumnName{"a"},
		Rows:    []models.Row{{"a": "1"}},
		Schema:  map[models.ColumnName]models.ColumnType{"a": "boolean"},
	}

	_, err := newEngine().Check(context.Background(), ds)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType))
}

func TestCheckCancelled(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"a"}, []models.Row{{"a": "1"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Check(ctx, ds)
	assert.True(t, errors.Is(err, errors.ErrJobCancelled))
}

func TestCheckUsesCachedSchema(t *testing.T) {
	ds := newDataset(t, []models.ColumnName{"code"}, []models.Row{{"code": "1"}, {"code": "2"}})
	ds.Schema["code"] = models.ColumnTypeCategorical

	result, err := newEngine().Check(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, models.ColumnTypeCategorical, result.DataTypes["code"])
	assert.Empty(t, result.Outliers)
}

func TestNewDataQualityEngineLeavesCallerConfigUntouched(t *testing.T) {
	config := &QualityConfig{MinOutlierSamples: 6}

	engine := NewDataQualityEngine(config, logrus.New())

	assert.Equal(t, &QualityConfig{MinOutlierSamples: 6}, config)
	assert.Equal(t, 6, engine.config.MinOutlierSamples)
	assert.Greater(t, engine.config.IQRMultiplier, 0.0)
	assert.Greater(t, engine.config.TopValues, 0)
}
