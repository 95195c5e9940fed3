package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/listing"
	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// FileStorageConfig contains configuration for file-based storage
type FileStorageConfig struct {
	BasePath    string `json:"base_path" yaml:"base_path"`
	Compression bool   `json:"compression" yaml:"compression"` // gzip documents
	CreateDirs  bool   `json:"create_dirs" yaml:"create_dirs"` // auto-create base directory
}

// FileStorage stores datasets and reports as JSON documents under a base path:
//
//	datasets/<id>/data.json
//	datasets/<id>/summary.json
//	reports/quality/<dataset-id>/<report-id>.json
//	reports/drift/<report-id>.json
type FileStorage struct {
	config    *FileStorageConfig
	logger    *logrus.Logger
	codec     *encoding.DocumentCodec
	mu        sync.RWMutex
	connected bool
}

// NewFileStorage creates a new file storage instance
func NewFileStorage(config *FileStorageConfig, logger *logrus.Logger) (*FileStorage, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("FileStorageConfig cannot be nil")
	}

	if config.BasePath == "" {
		return nil, errors.NewConfigurationError("BasePath is required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &FileStorage{
		config: config,
		logger: logger,
		codec:  encoding.NewDocumentCodec(config.Compression),
	}, nil
}

// Connect initializes the file storage
func (fs *FileStorage) Connect(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.connected {
		return nil
	}

	if fs.config.CreateDirs {
		if err := os.MkdirAll(fs.config.BasePath, 0755); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed,
				fmt.Sprintf("Failed to create directory: %s", fs.config.BasePath))
		}
	}

	if _, err := os.Stat(fs.config.BasePath); os.IsNotExist(err) {
		return errors.NewStorageError(errors.CodeConnectionFailed, fmt.Sprintf("Base path does not exist: %s", fs.config.BasePath))
	}

	// Test write permissions
	testFile := filepath.Join(fs.config.BasePath, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return errors.NewStorageError(errors.CodeConnectionFailed, fmt.Sprintf("Cannot write to directory: %s", fs.config.BasePath))
	}
	file.Close()
	os.Remove(testFile)

	fs.connected = true
	fs.logger.WithField("base_path", fs.config.BasePath).Info("File storage connected")

	return nil
}

// Close marks the storage as disconnected
func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.connected {
		return nil
	}

	fs.connected = false
	fs.logger.Info("File storage disconnected")
	return nil
}

// HealthCheck verifies the storage is accessible
func (fs *FileStorage) HealthCheck(ctx context.Context) error {
	if err := fs.checkConnected(); err != nil {
		return err
	}

	if _, err := os.Stat(fs.config.BasePath); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Base path is not accessible")
	}

	return nil
}

// SaveDataset writes the dataset document and its summary
func (fs *FileStorage) SaveDataset(ctx context.Context, dataset *models.Dataset) error {
	if err := fs.checkConnected(); err != nil {
		return err
	}
	if dataset == nil {
		return errors.NewInvalidDatasetError("dataset cannot be nil")
	}
	if err := validateID(dataset.ID); err != nil {
		return err
	}

	dir := fs.path("datasets", dataset.ID)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.writeDocument(filepath.Join(dir, "data.json"), dataset); err != nil {
		return err
	}
	if err := fs.writeDocument(filepath.Join(dir, "summary.json"), dataset.Summary()); err != nil {
		return err
	}

	fs.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"rows":       dataset.RowCount,
	}).Debug("Dataset written")

	return nil
}

// GetDataset reads a dataset document
func (fs *FileStorage) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	if err := fs.checkConnected(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var dataset models.Dataset
	if err := fs.readDocument(fs.path("datasets", id, "data.json"), &dataset); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("dataset", id)
		}
		return nil, err
	}
	return &dataset, nil
}

// ListDatasets reads every dataset summary
func (fs *FileStorage) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	if err := fs.checkConnected(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	dirs, err := fs.listEntries(fs.path("datasets"), true)
	if err != nil {
		return nil, err
	}

	items := make([]*models.DatasetSummary, 0, len(dirs))
	for _, dir := range dirs {
		var summary models.DatasetSummary
		if err := fs.readDocument(filepath.Join(dir, "summary.json"), &summary); err != nil {
			fs.logger.WithError(err).WithField("dir", dir).Warn("Skipping unreadable dataset summary")
			continue
		}
		items = append(items, &summary)
	}

	return listing.Datasets(items), nil
}

// SaveQualityReport writes a quality report document
func (fs *FileStorage) SaveQualityReport(ctx context.Context, report *models.QualityReport) error {
	if err := fs.checkConnected(); err != nil {
		return err
	}
	if report == nil {
		return errors.NewStorageError(errors.CodeWriteFailed, "quality report cannot be nil")
	}
	if err := validateID(report.DatasetID); err != nil {
		return err
	}
	if err := validateID(report.ID); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.writeDocument(fs.path("reports", "quality", report.DatasetID, report.ID+".json"), report)
}

// ListQualityReports reads the quality reports of a dataset
func (fs *FileStorage) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	if err := fs.checkConnected(); err != nil {
		return nil, err
	}
	if err := validateID(datasetID); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	files, err := fs.listEntries(fs.path("reports", "quality", datasetID), false)
	if err != nil {
		return nil, err
	}

	items := make([]*models.QualityReport, 0, len(files))
	for _, f := range files {
		var report models.QualityReport
		if err := fs.readDocument(f, &report); err != nil {
			fs.logger.WithError(err).WithField("file", f).Warn("Skipping unreadable quality report")
			continue
		}
		items = append(items, &report)
	}

	return listing.QualityReports(items), nil
}

// SaveDriftReport writes a drift report document
func (fs *FileStorage) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	if err := fs.checkConnected(); err != nil {
		return err
	}
	if report == nil {
		return errors.NewStorageError(errors.CodeWriteFailed, "drift report cannot be nil")
	}
	if err := validateID(report.ID); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.writeDocument(fs.path("reports", "drift", report.ID+".json"), report)
}

// ListDriftReports reads every drift report
func (fs *FileStorage) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	if err := fs.checkConnected(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	files, err := fs.listEntries(fs.path("reports", "drift"), false)
	if err != nil {
		return nil, err
	}

	items := make([]*models.DriftReport, 0, len(files))
	for _, f := range files {
		var report models.DriftReport
		if err := fs.readDocument(f, &report); err != nil {
			fs.logger.WithError(err).WithField("file", f).Warn("Skipping unreadable drift report")
			continue
		}
		items = append(items, &report)
	}

	return listing.DriftReports(items), nil
}

func (fs *FileStorage) checkConnected() error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if !fs.connected {
		return errors.NewStorageError(errors.CodeNotConnected, "File storage is not connected")
	}
	return nil
}

func (fs *FileStorage) path(parts ...string) string {
	return filepath.Join(append([]string{fs.config.BasePath}, parts...)...)
}

// writeDocument writes to a temporary file and renames it into place
func (fs *FileStorage) writeDocument(filePath string, v interface{}) error {
	data, err := fs.codec.Encode(v)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to encode document")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to create directory: %s", dir))
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to create file in: %s", dir))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to write document")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to close document")
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to move document into place: %s", filePath))
	}

	return nil
}

// readDocument returns the raw os error for a missing file
func (fs *FileStorage) readDocument(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("Failed to read file: %s", filePath))
	}

	if err := fs.codec.Decode(data, v); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("Failed to decode file: %s", filePath))
	}
	return nil
}

// listEntries returns the directories or .json files directly under dir
func (fs *FileStorage) listEntries(dir string, dirs bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("Failed to list directory: %s", dir))
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		if !dirs && !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// validateID rejects identifiers that would escape the base path
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.NewStorageError(errors.CodeWriteFailed, fmt.Sprintf("invalid identifier %q", id))
	}
	return nil
}
