package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

var (
	qualityCSVHeaders = []string{
		"column", "type",
		"missing_count", "missing_percentage",
		"outlier_count", "outlier_percentage",
		"mean", "std", "min", "25%", "50%", "75%", "max",
	}
	driftCSVHeaders = []string{
		"column", "test_type", "drift_score", "p_value", "psi_score", "has_drift", "skipped_reason",
	}
)

// CSVExporter writes one row per column of a report
type CSVExporter struct{}

// Name returns the exporter name
func (ce *CSVExporter) Name() string {
	return "csv"
}

// SupportedFormats returns supported formats
func (ce *CSVExporter) SupportedFormats() []ExportFormat {
	return []ExportFormat{FormatCSV}
}

// ValidateOptions validates CSV export options
func (ce *CSVExporter) ValidateOptions(options ExportOptions) error {
	if options.Delimiter != "" && len(options.Delimiter) != 1 {
		return errors.NewConfigurationError("CSV delimiter must be a single character")
	}
	return nil
}

// ExportQualityReport writes per-column missing values, outliers and
// numeric statistics.
func (ce *CSVExporter) ExportQualityReport(ctx context.Context, writer io.Writer, rep *models.QualityReport, options ExportOptions) error {
	rows := make([][]string, 0, len(rep.DataTypes))
	for _, col := range sortedKeys(rep.DataTypes) {
		missing := rep.MissingValues.Columns[col]
		row := []string{
			string(col),
			string(rep.DataTypes[col]),
			strconv.Itoa(missing.Count),
			formatFloat(missing.Percentage),
		}

		if outlier, ok := rep.Outliers[col]; ok {
			row = append(row, strconv.Itoa(outlier.Count), formatFloat(outlier.Percentage))
		} else {
			row = append(row, "", "")
		}

		if summary, ok := rep.Statistics.Numeric[col]; ok {
			row = append(row,
				formatFloat(summary.Mean), formatFloat(summary.Std), formatFloat(summary.Min),
				formatFloat(summary.Q25), formatFloat(summary.Q50), formatFloat(summary.Q75),
				formatFloat(summary.Max),
			)
		} else {
			row = append(row, "", "", "", "", "", "", "")
		}

		rows = append(rows, row)
	}

	return ce.write(ctx, writer, qualityCSVHeaders, rows, options)
}

// ExportDriftReport writes the tested columns followed by the skipped ones
func (ce *CSVExporter) ExportDriftReport(ctx context.Context, writer io.Writer, rep *models.DriftReport, options ExportOptions) error {
	rows := make([][]string, 0, len(rep.ColumnDrift)+len(rep.SkippedColumns))
	for _, col := range sortedKeys(rep.ColumnDrift) {
		result := rep.ColumnDrift[col]
		rows = append(rows, []string{
			string(col),
			result.TestType,
			formatFloat(result.DriftScore),
			formatOptional(result.PValue),
			formatOptional(result.PSIScore),
			strconv.FormatBool(result.HasDrift),
			"",
		})
	}
	for _, skipped := range rep.SkippedColumns {
		rows = append(rows, []string{string(skipped.ColumnName), "", "", "", "", "", skipped.Reason})
	}

	return ce.write(ctx, writer, driftCSVHeaders, rows, options)
}

func (ce *CSVExporter) write(ctx context.Context, writer io.Writer, headers []string, rows [][]string, options ExportOptions) error {
	csvWriter := csv.NewWriter(writer)
	if options.Delimiter != "" {
		csvWriter.Comma = rune(options.Delimiter[0])
	}

	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return errors.NewCancelledError(ctx.Err())
		default:
		}

		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func sortedKeys[V any](m map[models.ColumnName]V) []models.ColumnName {
	keys := make([]models.ColumnName, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
