package interfaces

import (
	"context"
	"time"

	"github.com/inferloop/datadrift/pkg/models"
)

// Storage defines the lifecycle of a storage backend
type Storage interface {
	// Connect establishes connection to the storage backend
	Connect(ctx context.Context) error

	// Close closes the connection and cleans up resources
	Close() error

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}

// DatasetStore persists datasets and the reports computed from them.
// Implementations must be safe for concurrent use.
type DatasetStore interface {
	Storage

	// SaveDataset stores an ingested dataset
	SaveDataset(ctx context.Context, dataset *models.Dataset) error

	// GetDataset returns a dataset with its rows
	GetDataset(ctx context.Context, id string) (*models.Dataset, error)

	// ListDatasets returns dataset summaries ordered by upload date
	ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error)

	// SaveQualityReport stores a quality report
	SaveQualityReport(ctx context.Context, report *models.QualityReport) error

	// ListQualityReports returns the quality reports of a dataset ordered by computation date
	ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error)

	// SaveDriftReport stores a drift report
	SaveDriftReport(ctx context.Context, report *models.DriftReport) error

	// ListDriftReports returns drift reports ordered by report date
	ListDriftReports(ctx context.Context) ([]*models.DriftReport, error)
}

// StorageCreateFunc creates a store from configuration
type StorageCreateFunc func(config StorageConfig) (DatasetStore, error)

// StorageConfig is the backend-agnostic storage configuration
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	File     FileConfig     `json:"file" mapstructure:"file"`
	Redis    RedisConfig    `json:"redis" mapstructure:"redis"`
	S3       S3Config       `json:"s3" mapstructure:"s3"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// FileConfig configures the file store
type FileConfig struct {
	BasePath    string `json:"base_path" mapstructure:"base_path"`
	Compression bool   `json:"compression" mapstructure:"compression"`
}

// RedisConfig configures the Redis store
type RedisConfig struct {
	Address   string        `json:"address" mapstructure:"address"`
	Password  string        `json:"password" mapstructure:"password"`
	Database  int           `json:"database" mapstructure:"database"`
	KeyPrefix string        `json:"key_prefix" mapstructure:"key_prefix"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
	PoolSize  int           `json:"pool_size" mapstructure:"pool_size"`
}

// S3Config configures the S3 store
type S3Config struct {
	Region          string `json:"region" mapstructure:"region"`
	Bucket          string `json:"bucket" mapstructure:"bucket"`
	Prefix          string `json:"prefix" mapstructure:"prefix"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `json:"force_path_style" mapstructure:"force_path_style"`
	UseCompression  bool   `json:"use_compression" mapstructure:"use_compression"`
}

// PostgresConfig configures the Postgres store
type PostgresConfig struct {
	DSN            string `json:"dsn" mapstructure:"dsn"`
	MaxConnections int    `json:"max_connections" mapstructure:"max_connections"`
}
