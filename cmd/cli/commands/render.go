package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

func validateFormat(format string) error {
	switch format {
	case constants.OutputFormatText, constants.OutputFormatJSON:
		return nil
	}
	return errors.NewConfigurationError(fmt.Sprintf("unsupported output format: %s (use text or json)", format))
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func sortedColumns[V any](m map[models.ColumnName]V) []models.ColumnName {
	cols := make([]models.ColumnName, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatScore(*v)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func formatYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func renderDatasetSummary(w io.Writer, s *models.DatasetSummary) {
	fmt.Fprintf(w, "Dataset:  %s\n", s.ID)
	fmt.Fprintf(w, "File:     %s (%s)\n", s.Filename, formatBytes(s.FileSize))
	fmt.Fprintf(w, "Shape:    %d rows x %d columns\n", s.RowCount, s.ColumnCount)
	fmt.Fprintf(w, "Uploaded: %s\n", s.UploadDate.Format(constants.DisplayDateFormat))

	t := newTable(w, "Schema")
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, col := range s.Columns {
		t.AppendRow(table.Row{col, s.Schema[col]})
	}
	t.Render()
}

func renderDatasets(w io.Writer, items []*models.DatasetSummary) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no datasets)")
		return
	}

	t := newTable(w, "")
	t.AppendHeader(table.Row{"ID", "Filename", "Rows", "Columns", "Size", "Uploaded"})
	for _, s := range items {
		t.AppendRow(table.Row{s.ID, s.Filename, s.RowCount, s.ColumnCount, formatBytes(s.FileSize),
			s.UploadDate.Format(constants.DisplayDateFormat)})
	}
	t.Render()
}

func renderQualityReport(w io.Writer, rep *models.QualityReport) {
	fmt.Fprintf(w, "Quality report %s for dataset %s (%s)\n", rep.ID, rep.DatasetID,
		rep.ComputedAt.Format(constants.DisplayDateFormat))
	fmt.Fprintf(w, "Rows: %d  Unique: %d  Duplicates: %d (%s)\n",
		rep.Duplicates.TotalRows, rep.Duplicates.UniqueRows, rep.Duplicates.DuplicateCount,
		formatPercent(rep.Duplicates.DuplicatePercentage))

	t := newTable(w, "Columns")
	t.AppendHeader(table.Row{"Column", "Type", "Missing", "Missing %", "Outliers", "Outliers %"})
	for _, col := range sortedColumns(rep.DataTypes) {
		missing := rep.MissingValues.Columns[col]
		outliers, outliersPct := "-", "-"
		if o, ok := rep.Outliers[col]; ok {
			outliers, outliersPct = strconv.Itoa(o.Count), formatPercent(o.Percentage)
		}
		t.AppendRow(table.Row{col, rep.DataTypes[col], missing.Count, formatPercent(missing.Percentage), outliers, outliersPct})
	}
	t.Render()

	if len(rep.Statistics.Numeric) > 0 {
		t := newTable(w, "Numeric statistics")
		t.AppendHeader(table.Row{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
		for _, col := range sortedColumns(rep.Statistics.Numeric) {
			s := rep.Statistics.Numeric[col]
			t.AppendRow(table.Row{col, s.Count, formatScore(s.Mean), formatScore(s.Std), formatScore(s.Min),
				formatScore(s.Q25), formatScore(s.Q50), formatScore(s.Q75), formatScore(s.Max)})
		}
		t.Render()
	}

	for _, col := range sortedColumns(rep.Statistics.Categorical) {
		t := newTable(w, fmt.Sprintf("Top values: %s", col))
		t.AppendHeader(table.Row{"Value", "Count"})
		for _, vc := range rep.Statistics.Categorical[col] {
			t.AppendRow(table.Row{vc.Value, vc.Count})
		}
		t.Render()
	}

	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func renderDriftReport(w io.Writer, rep *models.DriftReport) {
	fmt.Fprintf(w, "Drift report %s (%s)\n", rep.ID, rep.ReportDate.Format(constants.DisplayDateFormat))
	fmt.Fprintf(w, "Reference: %s  Target: %s\n", rep.ReferenceDatasetID, rep.TargetDatasetID)
	fmt.Fprintf(w, "Drift detected: %s  Overall score: %s\n", formatYesNo(rep.DriftDetected), formatScore(rep.OverallDriftScore))
	fmt.Fprintf(w, "Columns tested: %d  With drift: %d  Skipped: %d\n",
		rep.TestResults.TotalColumnsTested, rep.TestResults.ColumnsWithDrift, rep.TestResults.ColumnsSkipped)

	t := newTable(w, "Column drift")
	t.AppendHeader(table.Row{"Column", "Test", "Score", "P-Value", "PSI", "Drift"})
	for _, col := range sortedColumns(rep.ColumnDrift) {
		r := rep.ColumnDrift[col]
		t.AppendRow(table.Row{col, r.TestType, formatScore(r.DriftScore), formatOptional(r.PValue),
			formatOptional(r.PSIScore), formatYesNo(r.HasDrift)})
	}
	t.Render()

	if len(rep.SkippedColumns) > 0 {
		t := newTable(w, "Skipped columns")
		t.AppendHeader(table.Row{"Column", "Reason"})
		for _, s := range rep.SkippedColumns {
			t.AppendRow(table.Row{s.ColumnName, s.Reason})
		}
		t.Render()
	}
}

func renderQualityReports(w io.Writer, items []*models.QualityReport) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no quality reports)")
		return
	}

	t := newTable(w, "")
	t.AppendHeader(table.Row{"ID", "Dataset", "Computed", "Rows", "Duplicates %", "Outlier columns", "Warnings"})
	for _, r := range items {
		t.AppendRow(table.Row{r.ID, r.DatasetID, r.ComputedAt.Format(constants.DisplayDateFormat),
			r.Duplicates.TotalRows, formatPercent(r.Duplicates.DuplicatePercentage), len(r.Outliers), len(r.Warnings)})
	}
	t.Render()
}

func renderDriftReports(w io.Writer, items []*models.DriftReport) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no drift reports)")
		return
	}

	t := newTable(w, "")
	t.AppendHeader(table.Row{"ID", "Reference", "Target", "Date", "Drift", "Score", "Tested", "With drift"})
	for _, r := range items {
		t.AppendRow(table.Row{r.ID, r.ReferenceDatasetID, r.TargetDatasetID, r.ReportDate.Format(constants.DisplayDateFormat),
			formatYesNo(r.DriftDetected), formatScore(r.OverallDriftScore), r.TestResults.TotalColumnsTested, r.TestResults.ColumnsWithDrift})
	}
	t.Render()
}
