package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// ExportFormat represents a supported export format
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// CompressionType represents compression types
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
)

// ExportOptions contains options for exporting a report
type ExportOptions struct {
	Format      ExportFormat    `json:"format"`
	Compression CompressionType `json:"compression"`
	Pretty      bool            `json:"pretty"`
	Delimiter   string          `json:"delimiter"`
}

// ExportResult describes a report written to disk
type ExportResult struct {
	Path     string        `json:"path"`
	Format   ExportFormat  `json:"format"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Exporter writes quality and drift reports in one or more formats
type Exporter interface {
	Name() string
	SupportedFormats() []ExportFormat
	ValidateOptions(options ExportOptions) error
	ExportQualityReport(ctx context.Context, writer io.Writer, rep *models.QualityReport, options ExportOptions) error
	ExportDriftReport(ctx context.Context, writer io.Writer, rep *models.DriftReport, options ExportOptions) error
}

// ExportEngine dispatches reports to the exporter registered for a format
type ExportEngine struct {
	logger    *logrus.Logger
	exporters map[ExportFormat]Exporter
	mu        sync.RWMutex
}

// NewExportEngine creates an engine with the JSON and CSV exporters registered
func NewExportEngine(logger *logrus.Logger) *ExportEngine {
	if logger == nil {
		logger = logrus.New()
	}

	engine := &ExportEngine{
		logger:    logger,
		exporters: make(map[ExportFormat]Exporter),
	}
	engine.RegisterExporter(&JSONExporter{})
	engine.RegisterExporter(&CSVExporter{})

	return engine
}

// RegisterExporter registers an exporter for every format it supports
func (ee *ExportEngine) RegisterExporter(exporter Exporter) {
	ee.mu.Lock()
	defer ee.mu.Unlock()

	for _, format := range exporter.SupportedFormats() {
		ee.exporters[format] = exporter
	}
}

// GetSupportedFormats returns the registered formats in name order
func (ee *ExportEngine) GetSupportedFormats() []ExportFormat {
	ee.mu.RLock()
	defer ee.mu.RUnlock()

	formats := make([]ExportFormat, 0, len(ee.exporters))
	for format := range ee.exporters {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Export writes a *models.QualityReport or *models.DriftReport to writer
func (ee *ExportEngine) Export(ctx context.Context, writer io.Writer, report interface{}, options ExportOptions) error {
	exporter, err := ee.findExporter(options)
	if err != nil {
		return err
	}

	switch rep := report.(type) {
	case *models.QualityReport:
		return exporter.ExportQualityReport(ctx, writer, rep, options)
	case *models.DriftReport:
		return exporter.ExportDriftReport(ctx, writer, rep, options)
	default:
		return errors.NewInternalError(fmt.Sprintf("cannot export %T", report))
	}
}

// ExportToFile writes report to path, creating parent directories and
// compressing the output when requested.
func (ee *ExportEngine) ExportToFile(ctx context.Context, path string, report interface{}, options ExportOptions) (*ExportResult, error) {
	start := time.Now()

	if _, err := ee.findExporter(options); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to create export directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to create export file")
	}

	counter := &countingWriter{w: file}
	var out io.WriteCloser = nopCloser{counter}
	if options.Compression == CompressionGzip {
		out = gzip.NewWriter(counter)
	}

	exportErr := ee.Export(ctx, out, report, options)
	if err := out.Close(); err != nil && exportErr == nil {
		exportErr = err
	}
	if err := file.Close(); err != nil && exportErr == nil {
		exportErr = err
	}
	if exportErr != nil {
		os.Remove(path)
		return nil, exportErr
	}

	result := &ExportResult{
		Path:     path,
		Format:   options.Format,
		Size:     counter.n,
		Duration: time.Since(start),
	}

	ee.logger.WithFields(logrus.Fields{
		"path":     result.Path,
		"format":   result.Format,
		"size":     result.Size,
		"duration": result.Duration,
	}).Info("Report exported")

	return result, nil
}

func (ee *ExportEngine) findExporter(options ExportOptions) (Exporter, error) {
	ee.mu.RLock()
	exporter, ok := ee.exporters[options.Format]
	ee.mu.RUnlock()

	if !ok {
		return nil, errors.NewConfigurationError(fmt.Sprintf("unsupported export format: %s", options.Format))
	}
	if err := exporter.ValidateOptions(options); err != nil {
		return nil, err
	}
	return exporter, nil
}

// OptionsFromPath derives the format and compression from a file name such
// as report.csv or report.json.gz.
func OptionsFromPath(path string) (ExportOptions, error) {
	options := ExportOptions{Compression: CompressionNone}

	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".gz") {
		options.Compression = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	}

	switch filepath.Ext(name) {
	case ".json":
		options.Format = FormatJSON
		options.Pretty = true
	case ".csv":
		options.Format = FormatCSV
	default:
		return options, errors.NewConfigurationError(fmt.Sprintf("cannot infer export format from %q (use .json or .csv)", path))
	}

	return options, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
