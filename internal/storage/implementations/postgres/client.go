package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/listing"
	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// PostgresConfig holds configuration for Postgres storage
type PostgresConfig struct {
	DSN             string        `json:"dsn"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	MaxConnections  int           `json:"max_connections"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	Compression     bool          `json:"compression"`
}

// PostgresStorage keeps one row per dataset and report. Dataset rows are
// stored as an encoded payload; summaries and reports are JSONB.
type PostgresStorage struct {
	config    *PostgresConfig
	db        *sql.DB
	codec     *encoding.DocumentCodec
	logger    *logrus.Logger
	mu        sync.RWMutex
	connected bool
}

// NewPostgresStorage creates a new Postgres storage instance
func NewPostgresStorage(config *PostgresConfig, logger *logrus.Logger) (*PostgresStorage, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("Postgres config cannot be nil")
	}

	if config.DSN == "" {
		return nil, errors.NewConfigurationError("Postgres DSN is required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &PostgresStorage{
		config: config,
		codec:  encoding.NewDocumentCodec(config.Compression),
		logger: logger,
	}, nil
}

// Connect opens the connection pool and creates the tables
func (ps *PostgresStorage) Connect(ctx context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.connected {
		return nil
	}

	if ps.db == nil {
		db, err := sql.Open("postgres", ps.config.DSN)
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to open database connection")
		}

		maxConns := ps.config.MaxConnections
		if maxConns <= 0 {
			maxConns = constants.DefaultMaxConnections
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(ps.config.MaxIdleConns)
		db.SetConnMaxLifetime(ps.config.ConnMaxLifetime)
		ps.db = db
	}

	timeout := ps.config.ConnectTimeout
	if timeout <= 0 {
		timeout = constants.DefaultConnectionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ps.db.PingContext(ctx); err != nil {
		ps.db.Close()
		ps.db = nil
		return wrapPQError(err, errors.CodeConnectionFailed, "Failed to ping database")
	}

	if err := ps.initializeSchema(ctx); err != nil {
		ps.db.Close()
		ps.db = nil
		return wrapPQError(err, errors.CodeConnectionFailed, "Failed to initialize schema")
	}

	ps.connected = true
	ps.logger.Info("Connected to Postgres")
	return nil
}

// Close closes the database connection
func (ps *PostgresStorage) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.connected {
		return nil
	}

	err := ps.db.Close()
	ps.db = nil
	ps.connected = false
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to close database connection")
	}

	ps.logger.Info("Postgres connection closed")
	return nil
}

// HealthCheck pings the database
func (ps *PostgresStorage) HealthCheck(ctx context.Context) error {
	db, err := ps.getDB()
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return wrapPQError(err, errors.CodeConnectionFailed, "Database ping failed")
	}
	return nil
}

// SaveDataset inserts or replaces a dataset
func (ps *PostgresStorage) SaveDataset(ctx context.Context, dataset *models.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return errors.NewInvalidDatasetError("dataset and dataset ID are required")
	}

	db, err := ps.getDB()
	if err != nil {
		return err
	}

	payload, err := ps.codec.Encode(dataset)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode dataset")
	}
	summary, err := json.Marshal(dataset.Summary())
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode dataset summary")
	}

	query := `
	INSERT INTO datasets (id, filename, upload_date, summary, payload)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		filename = EXCLUDED.filename,
		upload_date = EXCLUDED.upload_date,
		summary = EXCLUDED.summary,
		payload = EXCLUDED.payload`

	if _, err := db.ExecContext(ctx, query, dataset.ID, dataset.Filename, dataset.UploadDate, summary, payload); err != nil {
		return wrapPQError(err, errors.CodeWriteFailed, "Failed to insert dataset")
	}

	ps.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"bytes":      len(payload),
	}).Debug("Stored dataset in Postgres")
	return nil
}

// GetDataset loads a dataset
func (ps *PostgresStorage) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	db, err := ps.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, "SELECT payload FROM datasets WHERE id = $1", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("dataset", id)
	}
	if err != nil {
		return nil, wrapPQError(err, errors.CodeReadFailed, "Failed to read dataset")
	}

	var dataset models.Dataset
	if err := ps.codec.Decode(payload, &dataset); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to decode dataset")
	}
	return &dataset, nil
}

// ListDatasets returns dataset summaries ordered by upload date
func (ps *PostgresStorage) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	var items []*models.DatasetSummary
	err := ps.queryDocuments(ctx, func(raw []byte) error {
		var summary models.DatasetSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return err
		}
		items = append(items, &summary)
		return nil
	}, "SELECT summary FROM datasets ORDER BY upload_date, id LIMIT $1", constants.MaxDatasetListing)
	if err != nil {
		return nil, err
	}
	return listing.Datasets(items), nil
}

// SaveQualityReport inserts a quality report
func (ps *PostgresStorage) SaveQualityReport(ctx context.Context, report *models.QualityReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "quality report and report ID are required")
	}

	query := `
	INSERT INTO quality_reports (id, dataset_id, computed_at, payload)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`

	return ps.insertDocument(ctx, query, report, report.ID, report.DatasetID, report.ComputedAt)
}

// ListQualityReports returns the quality reports of a dataset
func (ps *PostgresStorage) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	var items []*models.QualityReport
	err := ps.queryDocuments(ctx, func(raw []byte) error {
		var report models.QualityReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return err
		}
		items = append(items, &report)
		return nil
	}, "SELECT payload FROM quality_reports WHERE dataset_id = $1 ORDER BY computed_at, id LIMIT $2",
		datasetID, constants.MaxQualityReportListing)
	if err != nil {
		return nil, err
	}
	return listing.QualityReports(items), nil
}

// SaveDriftReport inserts a drift report
func (ps *PostgresStorage) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "drift report and report ID are required")
	}

	query := `
	INSERT INTO drift_reports (id, reference_dataset_id, target_dataset_id, report_date, payload)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`

	return ps.insertDocument(ctx, query, report, report.ID, report.ReferenceDatasetID, report.TargetDatasetID, report.ReportDate)
}

// ListDriftReports returns drift reports ordered by report date
func (ps *PostgresStorage) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	var items []*models.DriftReport
	err := ps.queryDocuments(ctx, func(raw []byte) error {
		var report models.DriftReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return err
		}
		items = append(items, &report)
		return nil
	}, "SELECT payload FROM drift_reports ORDER BY report_date, id LIMIT $1", constants.MaxDriftReportListing)
	if err != nil {
		return nil, err
	}
	return listing.DriftReports(items), nil
}

func (ps *PostgresStorage) initializeSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
		id VARCHAR(255) PRIMARY KEY,
		filename TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL,
		summary JSONB NOT NULL,
		payload BYTEA NOT NULL
	)`,
		`CREATE TABLE IF NOT EXISTS quality_reports (
		id VARCHAR(255) PRIMARY KEY,
		dataset_id VARCHAR(255) NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	)`,
		`CREATE TABLE IF NOT EXISTS drift_reports (
		id VARCHAR(255) PRIMARY KEY,
		reference_dataset_id VARCHAR(255) NOT NULL,
		target_dataset_id VARCHAR(255) NOT NULL,
		report_date TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	)`,
	}

	for _, stmt := range statements {
		if _, err := ps.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_datasets_upload_date ON datasets (upload_date)",
		"CREATE INDEX IF NOT EXISTS idx_quality_reports_dataset ON quality_reports (dataset_id, computed_at)",
		"CREATE INDEX IF NOT EXISTS idx_drift_reports_date ON drift_reports (report_date)",
	}

	for _, index := range indexes {
		if _, err := ps.db.ExecContext(ctx, index); err != nil {
			ps.logger.WithError(err).Warn("Failed to create index")
		}
	}

	return nil
}

// insertDocument executes an insert whose last parameter is the JSON payload of v
func (ps *PostgresStorage) insertDocument(ctx context.Context, query string, v interface{}, args ...interface{}) error {
	db, err := ps.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode report")
	}

	if _, err := db.ExecContext(ctx, query, append(args, payload)...); err != nil {
		return wrapPQError(err, errors.CodeWriteFailed, "Failed to insert report")
	}
	return nil
}

// queryDocuments scans a single JSON column from every returned row
func (ps *PostgresStorage) queryDocuments(ctx context.Context, decode func([]byte) error, query string, args ...interface{}) error {
	db, err := ps.getDB()
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return wrapPQError(err, errors.CodeReadFailed, "Failed to query documents")
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return wrapPQError(err, errors.CodeReadFailed, "Failed to scan document")
		}
		if err := decode(raw); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to decode document")
		}
	}

	if err := rows.Err(); err != nil {
		return wrapPQError(err, errors.CodeReadFailed, "Failed to iterate documents")
	}
	return nil
}

func (ps *PostgresStorage) getDB() (*sql.DB, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if !ps.connected || ps.db == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Database not connected")
	}
	return ps.db, nil
}

// wrapPQError attaches the Postgres SQLSTATE when the driver reports one
func wrapPQError(err error, code, message string) error {
	appErr := errors.WrapError(err, errors.ErrorTypeStorage, code, message)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		appErr.WithContext("sqlstate", string(pqErr.Code)).WithContext("constraint", pqErr.Constraint)
	}
	return appErr
}
