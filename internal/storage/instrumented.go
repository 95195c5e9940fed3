package storage

import (
	"context"
	"time"

	"github.com/inferloop/datadrift/pkg/interfaces"
	"github.com/inferloop/datadrift/pkg/models"
)

// OperationRecorder receives one call per store operation
type OperationRecorder interface {
	RecordStorageOperation(backend, operation, status string, duration time.Duration)
}

// InstrumentedStore reports the outcome and latency of every data call to
// the wrapped store
type InstrumentedStore struct {
	interfaces.DatasetStore
	backend  string
	recorder OperationRecorder
}

// Instrument wraps store. A nil recorder returns store unchanged.
func Instrument(store interfaces.DatasetStore, backend string, recorder OperationRecorder) interfaces.DatasetStore {
	if recorder == nil {
		return store
	}
	return &InstrumentedStore{DatasetStore: store, backend: backend, recorder: recorder}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.recorder.RecordStorageOperation(s.backend, operation, status, time.Since(start))
}

// SaveDataset implements interfaces.DatasetStore
func (s *InstrumentedStore) SaveDataset(ctx context.Context, dataset *models.Dataset) (err error) {
	defer func(start time.Time) { s.observe("save_dataset", start, err) }(time.Now())
	return s.DatasetStore.SaveDataset(ctx, dataset)
}

// GetDataset implements interfaces.DatasetStore
func (s *InstrumentedStore) GetDataset(ctx context.Context, id string) (dataset *models.Dataset, err error) {
	defer func(start time.Time) { s.observe("get_dataset", start, err) }(time.Now())
	return s.DatasetStore.GetDataset(ctx, id)
}

// ListDatasets implements interfaces.DatasetStore
func (s *InstrumentedStore) ListDatasets(ctx context.Context) (items []*models.DatasetSummary, err error) {
	defer func(start time.Time) { s.observe("list_datasets", start, err) }(time.Now())
	return s.DatasetStore.ListDatasets(ctx)
}

// SaveQualityReport implements interfaces.DatasetStore
func (s *InstrumentedStore) SaveQualityReport(ctx context.Context, report *models.QualityReport) (err error) {
	defer func(start time.Time) { s.observe("save_quality_report", start, err) }(time.Now())
	return s.DatasetStore.SaveQualityReport(ctx, report)
}

// ListQualityReports implements interfaces.DatasetStore
func (s *InstrumentedStore) ListQualityReports(ctx context.Context, datasetID string) (items []*models.QualityReport, err error) {
	defer func(start time.Time) { s.observe("list_quality_reports", start, err) }(time.Now())
	return s.DatasetStore.ListQualityReports(ctx, datasetID)
}

// SaveDriftReport implements interfaces.DatasetStore
func (s *InstrumentedStore) SaveDriftReport(ctx context.Context, report *models.DriftReport) (err error) {
	defer func(start time.Time) { s.observe("save_drift_report", start, err) }(time.Now())
	return s.DatasetStore.SaveDriftReport(ctx, report)
}

// ListDriftReports implements interfaces.DatasetStore
func (s *InstrumentedStore) ListDriftReports(ctx context.Context) (items []*models.DriftReport, err error) {
	defer func(start time.Time) { s.observe("list_drift_reports", start, err) }(time.Now())
	return s.DatasetStore.ListDriftReports(ctx)
}
