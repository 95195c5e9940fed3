package analysis

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/drift"
	"github.com/inferloop/datadrift/internal/ingest"
	"github.com/inferloop/datadrift/internal/observability/metrics"
	"github.com/inferloop/datadrift/internal/quality"
	"github.com/inferloop/datadrift/internal/report"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/interfaces"
	"github.com/inferloop/datadrift/pkg/models"
)

// ServiceConfig configures the engines used by the service
type ServiceConfig struct {
	Quality *quality.QualityConfig
	Drift   *drift.DriftConfig
}

// Service loads datasets from a store, runs the quality and drift engines
// and persists the assembled reports
type Service struct {
	store     interfaces.DatasetStore
	reader    *ingest.CSVReader
	quality   *quality.DataQualityEngine
	detector  *drift.Detector
	assembler *report.Assembler
	metrics   *metrics.PrometheusMetrics
	logger    *logrus.Logger
}

// Option customizes a Service
type Option func(*serviceOptions)

type serviceOptions struct {
	metrics       *metrics.PrometheusMetrics
	reportOptions []report.Option
}

// WithMetrics records check outcomes on m
func WithMetrics(m *metrics.PrometheusMetrics) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithReportOptions passes options to the report assembler
func WithReportOptions(opts ...report.Option) Option {
	return func(o *serviceOptions) {
		o.reportOptions = append(o.reportOptions, opts...)
	}
}

// NewService creates a new analysis service
func NewService(store interfaces.DatasetStore, config *ServiceConfig, logger *logrus.Logger, opts ...Option) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}
	if logger == nil {
		logger = logrus.New()
	}

	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &Service{
		store:     store,
		reader:    ingest.NewCSVReader(logger),
		quality:   quality.NewDataQualityEngine(config.Quality, logger),
		detector:  drift.NewDetector(config.Drift, logger),
		assembler: report.NewAssembler(store, logger, options.reportOptions...),
		metrics:   options.metrics,
		logger:    logger,
	}
}

// IngestCSV parses CSV input, infers its schema and stores the dataset
func (s *Service) IngestCSV(ctx context.Context, filename string, r io.Reader) (*models.DatasetSummary, error) {
	dataset, err := s.reader.Read(ctx, filename, r)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveDataset(ctx, dataset); err != nil {
		return nil, err
	}

	return dataset.Summary(), nil
}

// RunQualityCheck runs and persists a quality check for one dataset
func (s *Service) RunQualityCheck(ctx context.Context, datasetID string) (rep *models.QualityReport, err error) {
	defer s.observe(constants.CheckKindQuality, time.Now(), &err)

	dataset, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	result, err := s.quality.Check(ctx, dataset)
	if err != nil {
		return nil, err
	}

	return s.assembler.PublishQuality(ctx, result)
}

// RunDriftCheck runs and persists a drift check of target against reference
func (s *Service) RunDriftCheck(ctx context.Context, referenceID, targetID string) (rep *models.DriftReport, err error) {
	defer s.observe(constants.CheckKindDrift, time.Now(), &err)

	reference, err := s.store.GetDataset(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	target, err := s.store.GetDataset(ctx, targetID)
	if err != nil {
		return nil, err
	}

	result, err := s.detector.Detect(ctx, reference, target)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDriftResult(result.TestResults.TotalColumnsTested, result.DriftDetected)

	return s.assembler.PublishDrift(ctx, result)
}

// GetDataset returns a stored dataset
func (s *Service) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	return s.store.GetDataset(ctx, id)
}

// ListDatasets returns stored dataset summaries
func (s *Service) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	return s.store.ListDatasets(ctx)
}

// ListQualityReports returns historical quality reports for a dataset
func (s *Service) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	if _, err := s.store.GetDataset(ctx, datasetID); err != nil {
		return nil, err
	}
	return s.store.ListQualityReports(ctx, datasetID)
}

// ListDriftReports returns historical drift reports
func (s *Service) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	return s.store.ListDriftReports(ctx)
}

func (s *Service) observe(kind string, start time.Time, errp *error) {
	status := metrics.StatusSuccess
	if *errp != nil {
		status = metrics.StatusError
		s.logger.WithFields(logrus.Fields{
			"kind": kind,
			"code": errors.Code(*errp),
		}).WithError(*errp).Warn("Check failed")
	}
	s.metrics.RecordCheck(kind, status, time.Since(start))
}
