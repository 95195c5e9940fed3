package listing

import (
	"sort"

	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/models"
)

// Datasets orders summaries by upload date then ID and applies the listing limit
func Datasets(items []*models.DatasetSummary) []*models.DatasetSummary {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.UploadDate.Equal(b.UploadDate) {
			return a.UploadDate.Before(b.UploadDate)
		}
		return a.ID < b.ID
	})
	return limit(items, constants.MaxDatasetListing)
}

// QualityReports orders reports by computation date then ID and applies the listing limit
func QualityReports(items []*models.QualityReport) []*models.QualityReport {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ComputedAt.Equal(b.ComputedAt) {
			return a.ComputedAt.Before(b.ComputedAt)
		}
		return a.ID < b.ID
	})
	return limit(items, constants.MaxQualityReportListing)
}

// DriftReports orders reports by report date then ID and applies the listing limit
func DriftReports(items []*models.DriftReport) []*models.DriftReport {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ReportDate.Equal(b.ReportDate) {
			return a.ReportDate.Before(b.ReportDate)
		}
		return a.ID < b.ID
	})
	return limit(items, constants.MaxDriftReportListing)
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
