package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/listing"
	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// RedisConfig holds configuration for Redis storage
type RedisConfig struct {
	Addr         string        `json:"addr"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	PoolSize     int           `json:"pool_size"`
	MaxRetries   int           `json:"max_retries"`
	TTL          time.Duration `json:"ttl"` // zero keeps documents forever
	KeyPrefix    string        `json:"key_prefix"`
	Compression  bool          `json:"compression"`
}

// RedisStorage stores documents as string values and keeps one sorted set
// per listing, scored by the document date:
//
//	<prefix>:dataset:<id>          dataset document
//	<prefix>:summary:<id>          dataset summary
//	<prefix>:datasets              index of dataset IDs
//	<prefix>:quality:<id>          quality report
//	<prefix>:quality_index:<dsid>  index of a dataset's quality report IDs
//	<prefix>:drift:<id>            drift report
//	<prefix>:drift_index           index of drift report IDs
type RedisStorage struct {
	config *RedisConfig
	client redis.UniversalClient
	logger *logrus.Logger
	codec  *encoding.DocumentCodec
	mu     sync.RWMutex
	closed bool
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(config *RedisConfig, logger *logrus.Logger) (*RedisStorage, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("Redis config cannot be nil")
	}

	if config.Addr == "" {
		return nil, errors.NewConfigurationError("Redis address is required")
	}

	if config.TTL < 0 {
		return nil, errors.NewConfigurationError("Redis TTL cannot be negative")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &RedisStorage{
		config: config,
		logger: logger,
		codec:  encoding.NewDocumentCodec(config.Compression),
	}, nil
}

// Connect establishes connection to Redis
func (r *RedisStorage) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         r.config.Addr,
		Password:     r.config.Password,
		DB:           r.config.DB,
		DialTimeout:  r.config.DialTimeout,
		ReadTimeout:  r.config.ReadTimeout,
		WriteTimeout: r.config.WriteTimeout,
		PoolSize:     r.config.PoolSize,
		MaxRetries:   r.config.MaxRetries,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to connect to Redis")
	}

	r.client = client
	r.closed = false

	r.logger.WithFields(logrus.Fields{
		"addr": r.config.Addr,
		"db":   r.config.DB,
	}).Info("Connected to Redis")

	return nil
}

// Close closes the Redis connection
func (r *RedisStorage) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	r.closed = true
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to close Redis connection")
	}

	r.logger.Info("Redis connection closed")
	return nil
}

// HealthCheck pings Redis
func (r *RedisStorage) HealthCheck(ctx context.Context) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Redis ping failed")
	}
	return nil
}

// SaveDataset stores the dataset, its summary and its index entry in one transaction
func (r *RedisStorage) SaveDataset(ctx context.Context, dataset *models.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return errors.NewInvalidDatasetError("dataset and dataset ID are required")
	}

	client, err := r.getClient()
	if err != nil {
		return err
	}

	data, err := r.codec.Encode(dataset)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode dataset")
	}
	summary, err := r.codec.Encode(dataset.Summary())
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode dataset summary")
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.generateDatasetKey(dataset.ID), data, r.config.TTL)
		pipe.Set(ctx, r.generateSummaryKey(dataset.ID), summary, r.config.TTL)
		pipe.ZAdd(ctx, r.generateDatasetIndexKey(), &redis.Z{
			Score:  score(dataset.UploadDate),
			Member: dataset.ID,
		})
		return nil
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to write dataset to Redis")
	}

	r.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"rows":       dataset.RowCount,
		"bytes":      len(data),
	}).Debug("Stored dataset in Redis")

	return nil
}

// GetDataset loads a dataset
func (r *RedisStorage) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	client, err := r.getClient()
	if err != nil {
		return nil, err
	}

	data, err := client.Get(ctx, r.generateDatasetKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewNotFoundError("dataset", id)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read dataset from Redis")
	}

	var dataset models.Dataset
	if err := r.codec.Decode(data, &dataset); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to decode dataset")
	}
	return &dataset, nil
}

// ListDatasets returns dataset summaries ordered by upload date
func (r *RedisStorage) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	var items []*models.DatasetSummary
	err := r.loadIndexed(ctx, r.generateDatasetIndexKey(), r.generateSummaryKey, func(data []byte) error {
		var summary models.DatasetSummary
		if err := r.codec.Decode(data, &summary); err != nil {
			return err
		}
		items = append(items, &summary)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing.Datasets(items), nil
}

// SaveQualityReport stores a quality report and indexes it under its dataset
func (r *RedisStorage) SaveQualityReport(ctx context.Context, report *models.QualityReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "quality report and report ID are required")
	}
	return r.saveIndexed(ctx, r.generateQualityKey(report.ID), r.generateQualityIndexKey(report.DatasetID),
		report.ID, report.ComputedAt, report)
}

// ListQualityReports returns the quality reports of a dataset
func (r *RedisStorage) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	var items []*models.QualityReport
	err := r.loadIndexed(ctx, r.generateQualityIndexKey(datasetID), r.generateQualityKey, func(data []byte) error {
		var report models.QualityReport
		if err := r.codec.Decode(data, &report); err != nil {
			return err
		}
		items = append(items, &report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing.QualityReports(items), nil
}

// SaveDriftReport stores a drift report
func (r *RedisStorage) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "drift report and report ID are required")
	}
	return r.saveIndexed(ctx, r.generateDriftKey(report.ID), r.generateDriftIndexKey(),
		report.ID, report.ReportDate, report)
}

// ListDriftReports returns drift reports ordered by report date
func (r *RedisStorage) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	var items []*models.DriftReport
	err := r.loadIndexed(ctx, r.generateDriftIndexKey(), r.generateDriftKey, func(data []byte) error {
		var report models.DriftReport
		if err := r.codec.Decode(data, &report); err != nil {
			return err
		}
		items = append(items, &report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing.DriftReports(items), nil
}

func (r *RedisStorage) saveIndexed(ctx context.Context, key, indexKey, id string, at time.Time, v interface{}) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	data, err := r.codec.Encode(v)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode report")
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, r.config.TTL)
		pipe.ZAdd(ctx, indexKey, &redis.Z{Score: score(at), Member: id})
		return nil
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "Failed to write report to Redis")
	}
	return nil
}

// loadIndexed fetches every document referenced by a sorted-set index.
// Index entries whose document has expired are skipped.
func (r *RedisStorage) loadIndexed(ctx context.Context, indexKey string, keyFn func(string) string, decode func([]byte) error) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	ids, err := client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read index from Redis")
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyFn(id)
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read documents from Redis")
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			r.logger.WithField("key", keys[i]).Debug("Skipping expired index entry")
			continue
		}
		if err := decode([]byte(raw)); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
				fmt.Sprintf("failed to decode %s", keys[i]))
		}
	}
	return nil
}

func (r *RedisStorage) getClient() (redis.UniversalClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || r.client == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "Redis not connected")
	}
	return r.client, nil
}

func (r *RedisStorage) generateKey(parts ...string) string {
	key := strings.Join(parts, ":")
	if r.config.KeyPrefix != "" {
		return r.config.KeyPrefix + ":" + key
	}
	return key
}

func (r *RedisStorage) generateDatasetKey(id string) string {
	return r.generateKey("dataset", id)
}

func (r *RedisStorage) generateSummaryKey(id string) string {
	return r.generateKey("summary", id)
}

func (r *RedisStorage) generateDatasetIndexKey() string {
	return r.generateKey("datasets")
}

func (r *RedisStorage) generateQualityKey(id string) string {
	return r.generateKey("quality", id)
}

func (r *RedisStorage) generateQualityIndexKey(datasetID string) string {
	return r.generateKey("quality_index", datasetID)
}

func (r *RedisStorage) generateDriftKey(id string) string {
	return r.generateKey("drift", id)
}

func (r *RedisStorage) generateDriftIndexKey() string {
	return r.generateKey("drift_index")
}

// score maps a timestamp to a sorted-set score with millisecond resolution
func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
