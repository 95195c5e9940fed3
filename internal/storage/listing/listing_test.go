package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/models"
)

func TestDatasetsOrdering(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []*models.DatasetSummary{
		{ID: "c", UploadDate: t0.Add(time.Hour)},
		{ID: "b", UploadDate: t0},
		{ID: "a", UploadDate: t0},
	}

	got := Datasets(items)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestDriftReportsLimit(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]*models.DriftReport, constants.MaxDriftReportListing+5)
	for i := range items {
		items[i] = &models.DriftReport{ID: fmt.Sprintf("r%03d", i), ReportDate: t0.Add(time.Duration(i) * time.Minute)}
	}

	got := DriftReports(items)
	assert.Len(t, got, constants.MaxDriftReportListing)
	assert.Equal(t, "r000", got[0].ID)
}

func TestQualityReportsOrdering(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := QualityReports([]*models.QualityReport{
		{ID: "late", ComputedAt: t0.Add(time.Second)},
		{ID: "early", ComputedAt: t0},
	})
	assert.Equal(t, "early", got[0].ID)
}
