package drift

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/internal/schema"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

func newDataset(id string, columns []models.ColumnName, rows []models.Row) *models.Dataset {
	ds := &models.Dataset{ID: id, Columns: columns, Rows: rows}
	schema.NewInferencer(logrus.New()).Apply(ds)
	return ds
}

func uniformAges(id string, lo, hi float64, n int) *models.Dataset {
	rows := make([]models.Row, n)
	for i := range rows {
		age := lo + (hi-lo)*float64(i)/float64(n-1)
		rows[i] = models.Row{"age": fmt.Sprintf("%.2f", age)}
	}
	return newDataset(id, []models.ColumnName{"age"}, rows)
}

func mixedDataset(id string, n int, shift float64, cities []string) *models.Dataset {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{
			"amount": fmt.Sprintf("%.3f", float64(i%17)*1.5+shift),
			"city":   cities[i%len(cities)],
			"signup": base.Add(time.Duration(i) * 24 * time.Hour).Format("2006-01-02"),
		}
	}
	return newDataset(id, []models.ColumnName{"amount", "city", "signup"}, rows)
}

func newDetector() *Detector {
	return NewDetector(nil, logrus.New())
}

func TestDetectSelfComparison(t *testing.T) {
	ds := mixedDataset("ref", 120, 0, []string{"Paris", "Lyon", "Nice"})

	result, err := newDetector().Detect(context.Background(), ds, ds)
	require.NoError(t, err)

	assert.False(t, result.DriftDetected)
	assert.Equal(t, 3, result.TestResults.TotalColumnsTested)
	assert.Equal(t, 0, result.TestResults.ColumnsWithDrift)
	assert.InDelta(t, 0.0, result.OverallDriftScore, 1e-12)

	for col, r := range result.ColumnDrift {
		assert.InDelta(t, 0.0, r.DriftScore, 1e-12, string(col))
		require.NotNil(t, r.PValue, string(col))
		assert.InDelta(t, 1.0, *r.PValue, 1e-9, string(col))
		assert.False(t, r.HasDrift, string(col))
	}

	assert.Equal(t, constants.TestKolmogorovSmirnov, result.ColumnDrift["amount"].TestType)
	assert.Equal(t, constants.TestChiSquare, result.ColumnDrift["city"].TestType)
	assert.Equal(t, constants.TestKolmogorovSmirnov, result.ColumnDrift["signup"].TestType)
}

func TestDetectUniformAgeShift(t *testing.T) {
	reference := uniformAges("a", 20, 40, 100)
	target := uniformAges("b", 60, 80, 100)

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	age := result.ColumnDrift["age"]
	assert.True(t, age.HasDrift)
	assert.Equal(t, "Kolmogorov-Smirnov", age.TestType)
	assert.GreaterOrEqual(t, age.DriftScore, 0.9)
	require.NotNil(t, age.PValue)
	assert.Less(t, *age.PValue, 0.01)
	assert.True(t, result.DriftDetected)

	require.NotNil(t, age.ReferenceMean)
	assert.InDelta(t, 30.0, *age.ReferenceMean, 0.01)
	assert.InDelta(t, 70.0, *age.TargetMean, 0.01)
	require.NotNil(t, age.PSIScore)
	assert.Greater(t, *age.PSIScore, 0.25)
}

func TestDetectNoSharedColumns(t *testing.T) {
	reference := newDataset("a", []models.ColumnName{"x"}, []models.Row{{"x": "1"}, {"x": "2"}})
	target := newDataset("b", []models.ColumnName{"y"}, []models.Row{{"y": "1"}, {"y": "2"}})

	_, err := newDetector().Detect(context.Background(), reference, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyIntersection))
}

func TestDetectEmptyDatasets(t *testing.T) {
	ok := newDataset("ok", []models.ColumnName{"x"}, []models.Row{{"x": "1"}, {"x": "2"}})
	noRows := newDataset("empty", []models.ColumnName{"x"}, nil)
	noColumns := &models.Dataset{ID: "nocols"}

	_, err := newDetector().Detect(context.Background(), ok, noRows)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))

	_, err = newDetector().Detect(context.Background(), noColumns, ok)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))

	_, err = newDetector().Detect(context.Background(), nil, ok)
	assert.True(t, errors.Is(err, errors.ErrInvalidDataset))
}

func TestDetectSkippedAccounting(t *testing.T) {
	reference := newDataset("ref", []models.ColumnName{"shared", "code", "sparse", "ref_only"}, []models.Row{
		{"shared": "1", "code": "1", "sparse": "5", "ref_only": "a"},
		{"shared": "2", "code": "2", "ref_only": "b"},
		{"shared": "3", "code": "3", "ref_only": "c"},
	})
	target := newDataset("tgt", []models.ColumnName{"shared", "code", "sparse", "tgt_only"}, []models.Row{
		{"shared": "1", "code": "A1", "sparse": "5", "tgt_only": "x"},
		{"shared": "2", "code": "B2", "sparse": "6", "tgt_only": "y"},
		{"shared": "3", "code": "C3", "sparse": "7", "tgt_only": "z"},
	})

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TestResults.TotalColumnsTested)
	assert.Equal(t, []models.ColumnName{"shared"}, result.TestedColumns)
	assert.Equal(t, 4, result.TestResults.ColumnsSkipped)
	assert.Equal(t, []models.SkippedColumn{
		{ColumnName: "code", Reason: constants.SkipTypeMismatch},
		{ColumnName: "sparse", Reason: constants.SkipInsufficientSamples},
		{ColumnName: "ref_only", Reason: constants.SkipMissingInTarget},
		{ColumnName: "tgt_only", Reason: constants.SkipMissingInReference},
	}, result.SkippedColumns)
	assert.NotContains(t, result.ColumnDrift, models.ColumnName("code"))
}

func TestDetectCategoricalDrift(t *testing.T) {
	reference := mixedDataset("ref", 90, 0, []string{"Paris", "Lyon", "Nice"})
	target := mixedDataset("tgt", 90, 0, []string{"Berlin", "Munich", "Paris"})

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	city := result.ColumnDrift["city"]
	assert.True(t, city.HasDrift)
	assert.InDelta(t, 2.0/3.0, city.DriftScore, 1e-9)
	require.NotNil(t, city.PValue)
	assert.Less(t, *city.PValue, 0.05)
	assert.Equal(t, 3, *city.ReferenceUniqueValues)
	assert.Equal(t, 3, *city.TargetUniqueValues)
}

func TestDetectSingleCategory(t *testing.T) {
	reference := newDataset("ref", []models.ColumnName{"flag"}, []models.Row{{"flag": "on"}, {"flag": "on"}})
	target := newDataset("tgt", []models.ColumnName{"flag"}, []models.Row{{"flag": "on"}, {"flag": "on"}, {"flag": "on"}})

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	flag := result.ColumnDrift["flag"]
	assert.Nil(t, flag.PValue)
	assert.Equal(t, 0.0, flag.DriftScore)
	assert.False(t, flag.HasDrift)
}

func TestDetectDatetimeShift(t *testing.T) {
	reference := mixedDataset("ref", 60, 0, []string{"a"})
	target := mixedDataset("tgt", 60, 0, []string{"a"})
	for i, row := range target.Rows {
		row["signup"] = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
	}
	target.Schema["signup"] = models.ColumnTypeDatetime

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	signup := result.ColumnDrift["signup"]
	assert.Equal(t, constants.TestKolmogorovSmirnov, signup.TestType)
	assert.Equal(t, 1.0, signup.DriftScore)
	assert.True(t, signup.HasDrift)
}

func TestDetectAggregation(t *testing.T) {
	reference := mixedDataset("ref", 100, 0, []string{"Paris", "Lyon"})
	target := mixedDataset("tgt", 100, 1000, []string{"Paris", "Lyon"})

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	sum := 0.0
	for _, col := range result.TestedColumns {
		sum += result.ColumnDrift[col].DriftScore
	}
	assert.Equal(t, sum/float64(len(result.TestedColumns)), result.OverallDriftScore)
	assert.Equal(t, 1, result.TestResults.ColumnsWithDrift)
	assert.True(t, result.ColumnDrift["amount"].HasDrift)
	assert.True(t, result.DriftDetected)
	assert.Equal(t, 0.05, result.TestResults.Threshold)
}

func TestDetectConfigurableThresholds(t *testing.T) {
	reference := mixedDataset("ref", 100, 0, []string{"Paris", "Lyon"})
	target := mixedDataset("tgt", 100, 1000, []string{"Paris", "Lyon"})

	config := DefaultDriftConfig()
	config.DriftShareThreshold = 0.5
	config.OverallScoreThreshold = 0.9
	detector := NewDetector(config, logrus.New())

	result, err := detector.Detect(context.Background(), reference, target)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TestResults.ColumnsWithDrift)
	assert.False(t, result.DriftDetected)
}

func TestDetectDeterministic(t *testing.T) {
	reference := mixedDataset("ref", 200, 0, []string{"Paris", "Lyon", "Nice"})
	target := mixedDataset("tgt", 150, 0.75, []string{"Paris", "Lyon", "Nice", "Lille"})

	first, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)
	second, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)

	assert.Equal(t, first.ColumnDrift, second.ColumnDrift)
	assert.Equal(t, first.OverallDriftScore, second.OverallDriftScore)
}

func TestDetectCancelled(t *testing.T) {
	ds := mixedDataset("ref", 20, 0, []string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDetector().Detect(ctx, ds, ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrJobCancelled))
}

func TestDetectUsesCachedSchema(t *testing.T) {
	reference := newDataset("ref", []models.ColumnName{"zip"}, []models.Row{{"zip": "1000"}, {"zip": "2000"}})
	target := newDataset("tgt", []models.ColumnName{"zip"}, []models.Row{{"zip": "1000"}, {"zip": "3000"}})
	reference.Schema["zip"] = models.ColumnTypeCategorical
	target.Schema["zip"] = models.ColumnTypeCategorical

	result, err := newDetector().Detect(context.Background(), reference, target)
	require.NoError(t, err)
	assert.Equal(t, constants.TestChiSquare, result.ColumnDrift["zip"].TestType)
}

func TestNewDetectorLeavesCallerConfigUntouched(t *testing.T) {
	config := &DriftConfig{KSScoreThreshold: 0.2}

	detector := NewDetector(config, logrus.New())

	assert.Equal(t, &DriftConfig{KSScoreThreshold: 0.2}, config)
	assert.Equal(t, 0.2, detector.Config().KSScoreThreshold)
	assert.Equal(t, constants.DefaultSignificanceLevel, detector.Config().SignificanceLevel)
	assert.Equal(t, constants.DefaultPSIBins, detector.Config().PSIBins)

	config.KSScoreThreshold = 0.9
	assert.Equal(t, 0.2, detector.Config().KSScoreThreshold)
}
