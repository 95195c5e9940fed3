package file

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/interfaces"
	"github.com/inferloop/datadrift/pkg/models"
)

var _ interfaces.DatasetStore = (*FileStorage)(nil)

func newConnectedStorage(t *testing.T, compression bool) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(&FileStorageConfig{
		BasePath:    t.TempDir(),
		Compression: compression,
		CreateDirs:  true,
	}, logrus.New())
	require.NoError(t, err)
	require.NoError(t, fs.Connect(context.Background()))
	return fs
}

func TestNewFileStorageValidation(t *testing.T) {
	_, err := NewFileStorage(nil, nil)
	assert.Error(t, err)

	_, err = NewFileStorage(&FileStorageConfig{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BasePath is required")
}

func TestNotConnected(t *testing.T) {
	fs, err := NewFileStorage(&FileStorageConfig{BasePath: t.TempDir()}, nil)
	require.NoError(t, err)

	_, err = fs.ListDatasets(context.Background())
	assert.Error(t, err)
	assert.Equal(t, errors.CodeNotConnected, errors.Code(err))
}

func TestDatasetRoundTrip(t *testing.T) {
	for _, compression := range []bool{false, true} {
		ctx := context.Background()
		fs := newConnectedStorage(t, compression)

		ds := &models.Dataset{
			ID:         "ds-1",
			Filename:   "a.csv",
			Columns:    []models.ColumnName{"x", "y"},
			Rows:       []models.Row{{"x": "1", "y": "a"}, {"x": "2"}},
			Schema:     map[models.ColumnName]models.ColumnType{"x": models.ColumnTypeNumeric, "y": models.ColumnTypeCategorical},
			RowCount:   2,
			UploadDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, fs.SaveDataset(ctx, ds))

		got, err := fs.GetDataset(ctx, "ds-1")
		require.NoError(t, err)
		assert.Equal(t, ds.Rows, got.Rows)
		assert.Equal(t, ds.Schema, got.Schema)

		list, err := fs.ListDatasets(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "a.csv", list[0].Filename)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	fs := newConnectedStorage(t, false)

	_, err := fs.GetDataset(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrDataNotFound))
}

func TestRejectsPathTraversal(t *testing.T) {
	fs := newConnectedStorage(t, false)

	_, err := fs.GetDataset(context.Background(), "../etc")
	assert.Error(t, err)
}

func TestReportsRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := newConnectedStorage(t, false)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, fs.SaveQualityReport(ctx, &models.QualityReport{ID: "q2", DatasetID: "ds", ComputedAt: t0.Add(time.Minute)}))
	require.NoError(t, fs.SaveQualityReport(ctx, &models.QualityReport{ID: "q1", DatasetID: "ds", ComputedAt: t0}))

	p := 0.2
	require.NoError(t, fs.SaveDriftReport(ctx, &models.DriftReport{
		ID:         "d1",
		ReportDate: t0,
		ColumnDrift: map[models.ColumnName]models.ColumnDriftResult{
			"age": {ColumnName: "age", PValue: &p},
		},
	}))

	quality, err := fs.ListQualityReports(ctx, "ds")
	require.NoError(t, err)
	require.Len(t, quality, 2)
	assert.Equal(t, "q1", quality[0].ID)

	none, err := fs.ListQualityReports(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	drift, err := fs.ListDriftReports(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, 0.2, *drift[0].ColumnDrift["age"].PValue)
}
