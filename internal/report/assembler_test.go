package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/internal/drift"
	"github.com/inferloop/datadrift/internal/quality"
	"github.com/inferloop/datadrift/pkg/models"
)

type recordingSink struct {
	quality []*models.QualityReport
	drift   []*models.DriftReport
	err     error
}

func (s *recordingSink) SaveQualityReport(ctx context.Context, r *models.QualityReport) error {
	if s.err != nil {
		return s.err
	}
	s.quality = append(s.quality, r)
	return nil
}

func (s *recordingSink) SaveDriftReport(ctx context.Context, r *models.DriftReport) error {
	if s.err != nil {
		return s.err
	}
	s.drift = append(s.drift, r)
	return nil
}

var fixedTime = time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))

func newTestAssembler(sink Sink) *Assembler {
	return NewAssembler(sink, logrus.New(),
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "report-1" }),
	)
}

func TestPublishQuality(t *testing.T) {
	sink := &recordingSink{}
	res := &quality.Result{
		DatasetID: "ds-1",
		MissingValues: models.MissingValues{
			TotalRows: 10,
			Columns:   map[models.ColumnName]models.MissingValueStats{"a": {Count: 10, Percentage: 100}},
		},
		Duplicates: models.DuplicateStats{TotalRows: 10, UniqueRows: 10},
	}

	rep, err := newTestAssembler(sink).PublishQuality(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, "report-1", rep.ID)
	assert.Equal(t, "ds-1", rep.DatasetID)
	assert.Equal(t, fixedTime.UTC(), rep.ComputedAt)
	assert.Equal(t, time.UTC, rep.ComputedAt.Location())
	assert.Equal(t, res.MissingValues, rep.MissingValues)
	require.Len(t, sink.quality, 1)
	assert.Same(t, rep, sink.quality[0])
}

func TestPublishDrift(t *testing.T) {
	sink := &recordingSink{}
	p := 0.5
	res := &drift.Result{
		ReferenceDatasetID: "ref",
		TargetDatasetID:    "tgt",
		DriftDetected:      true,
		OverallDriftScore:  0.2,
		TestResults:        models.DriftTestResults{TotalColumnsTested: 1, ColumnsWithDrift: 1, Threshold: 0.05},
		ColumnDrift: map[models.ColumnName]models.ColumnDriftResult{
			"age": {ColumnName: "age", TestType: "Kolmogorov-Smirnov", DriftScore: 0.2, PValue: &p, HasDrift: true},
		},
	}

	rep, err := newTestAssembler(sink).PublishDrift(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, "ref", rep.ReferenceDatasetID)
	assert.Equal(t, "tgt", rep.TargetDatasetID)
	assert.True(t, rep.DriftDetected)
	assert.Equal(t, fixedTime.UTC(), rep.ReportDate)
	assert.Equal(t, res.ColumnDrift, rep.ColumnDrift)
	require.Len(t, sink.drift, 1)
}

func TestPublishFailsWithoutReport(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("disk full")}

	rep, err := newTestAssembler(sink).PublishDrift(context.Background(), &drift.Result{})
	assert.Nil(t, rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDefaultIDsAreUnique(t *testing.T) {
	a := NewAssembler(nil, nil)
	r1 := a.QualityReport(&quality.Result{})
	r2 := a.QualityReport(&quality.Result{})

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Len(t, r1.ID, 36)
}
