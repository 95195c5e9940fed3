package memory

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/listing"
	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// MemoryStorage keeps datasets and reports in process memory. Values are
// held encoded, so neither the saver nor a reader can mutate stored state.
type MemoryStorage struct {
	logger         *logrus.Logger
	codec          *encoding.DocumentCodec
	mu             sync.RWMutex
	datasets       map[string][]byte
	summaries      map[string][]byte
	qualityReports map[string][][]byte
	driftReports   [][]byte
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage(logger *logrus.Logger) *MemoryStorage {
	if logger == nil {
		logger = logrus.New()
	}
	return &MemoryStorage{
		logger:         logger,
		codec:          encoding.NewDocumentCodec(false),
		datasets:       make(map[string][]byte),
		summaries:      make(map[string][]byte),
		qualityReports: make(map[string][][]byte),
	}
}

// Connect is a no-op
func (ms *MemoryStorage) Connect(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (ms *MemoryStorage) Close() error {
	return nil
}

// HealthCheck always succeeds
func (ms *MemoryStorage) HealthCheck(ctx context.Context) error {
	return nil
}

// SaveDataset stores a copy of the dataset
func (ms *MemoryStorage) SaveDataset(ctx context.Context, dataset *models.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return errors.NewInvalidDatasetError("dataset and dataset ID are required")
	}

	data, err := ms.encode(dataset, "dataset")
	if err != nil {
		return err
	}
	summary, err := ms.encode(dataset.Summary(), "dataset summary")
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.datasets[dataset.ID] = data
	ms.summaries[dataset.ID] = summary

	ms.logger.WithField("dataset_id", dataset.ID).Debug("Dataset stored in memory")
	return nil
}

// GetDataset returns a copy of the dataset
func (ms *MemoryStorage) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	ms.mu.RLock()
	data, ok := ms.datasets[id]
	ms.mu.RUnlock()

	if !ok {
		return nil, errors.NewNotFoundError("dataset", id)
	}

	var dataset models.Dataset
	if err := ms.decode(data, &dataset, "dataset"); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListDatasets returns summaries ordered by upload date
func (ms *MemoryStorage) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	items := make([]*models.DatasetSummary, 0, len(ms.summaries))
	for _, data := range ms.summaries {
		var summary models.DatasetSummary
		if err := ms.decode(data, &summary, "dataset summary"); err != nil {
			return nil, err
		}
		items = append(items, &summary)
	}
	return listing.Datasets(items), nil
}

// SaveQualityReport stores a quality report
func (ms *MemoryStorage) SaveQualityReport(ctx context.Context, report *models.QualityReport) error {
	if report == nil {
		return errors.NewStorageError(errors.CodeWriteFailed, "quality report cannot be nil")
	}

	data, err := ms.encode(report, "quality report")
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.qualityReports[report.DatasetID] = append(ms.qualityReports[report.DatasetID], data)
	return nil
}

// ListQualityReports returns the quality reports of a dataset
func (ms *MemoryStorage) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored := ms.qualityReports[datasetID]
	items := make([]*models.QualityReport, 0, len(stored))
	for _, data := range stored {
		var report models.QualityReport
		if err := ms.decode(data, &report, "quality report"); err != nil {
			return nil, err
		}
		items = append(items, &report)
	}
	return listing.QualityReports(items), nil
}

// SaveDriftReport stores a drift report
func (ms *MemoryStorage) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	if report == nil {
		return errors.NewStorageError(errors.CodeWriteFailed, "drift report cannot be nil")
	}

	data, err := ms.encode(report, "drift report")
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.driftReports = append(ms.driftReports, data)
	return nil
}

// ListDriftReports returns all drift reports
func (ms *MemoryStorage) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	items := make([]*models.DriftReport, 0, len(ms.driftReports))
	for _, data := range ms.driftReports {
		var report models.DriftReport
		if err := ms.decode(data, &report, "drift report"); err != nil {
			return nil, err
		}
		items = append(items, &report)
	}
	return listing.DriftReports(items), nil
}

func (ms *MemoryStorage) encode(v interface{}, kind string) ([]byte, error) {
	data, err := ms.codec.Encode(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode "+kind)
	}
	return data, nil
}

func (ms *MemoryStorage) decode(data []byte, v interface{}, kind string) error {
	if err := ms.codec.Decode(data, v); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to decode "+kind)
	}
	return nil
}
