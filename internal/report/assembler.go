package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/drift"
	"github.com/inferloop/datadrift/internal/quality"
	"github.com/inferloop/datadrift/pkg/models"
)

// Sink receives finished reports
type Sink interface {
	SaveQualityReport(ctx context.Context, report *models.QualityReport) error
	SaveDriftReport(ctx context.Context, report *models.DriftReport) error
}

// Assembler maps engine results onto persisted report shapes
type Assembler struct {
	sink   Sink
	logger *logrus.Logger
	clock  func() time.Time
	newID  func() string
}

// Option configures an Assembler
type Option func(*Assembler)

// WithClock overrides the time source used for report timestamps
func WithClock(clock func() time.Time) Option {
	return func(a *Assembler) {
		a.clock = clock
	}
}

// WithIDGenerator overrides report ID generation
func WithIDGenerator(newID func() string) Option {
	return func(a *Assembler) {
		a.newID = newID
	}
}

// NewAssembler creates an assembler. A nil sink only builds reports.
func NewAssembler(sink Sink, logger *logrus.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = logrus.New()
	}

	a := &Assembler{
		sink:   sink,
		logger: logger,
		clock:  time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// QualityReport builds the quality report for a result
func (a *Assembler) QualityReport(res *quality.Result) *models.QualityReport {
	return &models.QualityReport{
		ID:            a.newID(),
		DatasetID:     res.DatasetID,
		ComputedAt:    a.clock().UTC(),
		MissingValues: res.MissingValues,
		Duplicates:    res.Duplicates,
		Outliers:      res.Outliers,
		DataTypes:     res.DataTypes,
		Statistics:    res.Statistics,
		Warnings:      res.Warnings,
	}
}

// DriftReport builds the drift report for a result
func (a *Assembler) DriftReport(res *drift.Result) *models.DriftReport {
	return &models.DriftReport{
		ID:                 a.newID(),
		ReferenceDatasetID: res.ReferenceDatasetID,
		TargetDatasetID:    res.TargetDatasetID,
		ReportDate:         a.clock().UTC(),
		DriftDetected:      res.DriftDetected,
		OverallDriftScore:  res.OverallDriftScore,
		TestResults:        res.TestResults,
		ColumnDrift:        res.ColumnDrift,
		SkippedColumns:     res.SkippedColumns,
	}
}

// PublishQuality builds the quality report and hands it to the sink
func (a *Assembler) PublishQuality(ctx context.Context, res *quality.Result) (*models.QualityReport, error) {
	rep := a.QualityReport(res)
	if a.sink != nil {
		if err := a.sink.SaveQualityReport(ctx, rep); err != nil {
			return nil, fmt.Errorf("failed to save quality report: %w", err)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"report_id":  rep.ID,
		"dataset_id": rep.DatasetID,
	}).Debug("Quality report assembled")

	return rep, nil
}

// PublishDrift builds the drift report and hands it to the sink
func (a *Assembler) PublishDrift(ctx context.Context, res *drift.Result) (*models.DriftReport, error) {
	rep := a.DriftReport(res)
	if a.sink != nil {
		if err := a.sink.SaveDriftReport(ctx, rep); err != nil {
			return nil, fmt.Errorf("failed to save drift report: %w", err)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"report_id":    rep.ID,
		"reference_id": rep.ReferenceDatasetID,
		"target_id":    rep.TargetDatasetID,
	}).Debug("Drift report assembled")

	return rep, nil
}
