package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// JSONExporter writes a report wrapped with export metadata
type JSONExporter struct{}

// JSONExportInfo describes the export itself
type JSONExportInfo struct {
	Timestamp  time.Time `json:"timestamp"`
	Format     string    `json:"format"`
	Kind       string    `json:"kind"`
	ExportedBy string    `json:"exported_by"`
	Version    string    `json:"version"`
}

// JSONExportWrapper is the document written by the JSON exporter
type JSONExportWrapper struct {
	ExportInfo JSONExportInfo `json:"export_info"`
	Report     interface{}    `json:"report"`
}

// Name returns the exporter name
func (je *JSONExporter) Name() string {
	return "json"
}

// SupportedFormats returns supported formats
func (je *JSONExporter) SupportedFormats() []ExportFormat {
	return []ExportFormat{FormatJSON}
}

// ValidateOptions validates JSON export options
func (je *JSONExporter) ValidateOptions(options ExportOptions) error {
	return nil
}

// ExportQualityReport writes a quality report as JSON
func (je *JSONExporter) ExportQualityReport(ctx context.Context, writer io.Writer, rep *models.QualityReport, options ExportOptions) error {
	return je.write(ctx, writer, constants.CheckKindQuality, rep, options)
}

// ExportDriftReport writes a drift report as JSON
func (je *JSONExporter) ExportDriftReport(ctx context.Context, writer io.Writer, rep *models.DriftReport, options ExportOptions) error {
	return je.write(ctx, writer, constants.CheckKindDrift, rep, options)
}

func (je *JSONExporter) write(ctx context.Context, writer io.Writer, kind string, rep interface{}, options ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError(err)
	}

	encoder := json.NewEncoder(writer)
	if options.Pretty {
		encoder.SetIndent("", "  ")
	}

	wrapper := JSONExportWrapper{
		ExportInfo: JSONExportInfo{
			Timestamp:  time.Now().UTC(),
			Format:     string(FormatJSON),
			Kind:       kind,
			ExportedBy: constants.AppName,
			Version:    constants.AppVersion,
		},
		Report: rep,
	}

	if err := encoder.Encode(wrapper); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode report")
	}
	return nil
}
