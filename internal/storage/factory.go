package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/implementations/file"
	"github.com/inferloop/datadrift/internal/storage/implementations/memory"
	"github.com/inferloop/datadrift/internal/storage/implementations/postgres"
	redisstore "github.com/inferloop/datadrift/internal/storage/implementations/redis"
	s3store "github.com/inferloop/datadrift/internal/storage/implementations/s3"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/interfaces"
)

// Factory creates dataset stores by backend name
type Factory struct {
	creators map[string]interfaces.StorageCreateFunc
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewFactory creates a new storage factory with the built-in backends registered
func NewFactory(logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}

	factory := &Factory{
		creators: make(map[string]interfaces.StorageCreateFunc),
		logger:   logger,
	}

	factory.registerDefaults()

	return factory
}

// CreateStorage creates a new, unconnected store
func (f *Factory) CreateStorage(storageType string, config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
	f.mu.RLock()
	createFunc, exists := f.creators[storageType]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.NewStorageError(errors.CodeUnsupportedStore, fmt.Sprintf("Storage type '%s' is not supported", storageType))
	}

	store, err := createFunc(config)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"storage_type": storageType,
	}).Debug("Created storage instance")

	return store, nil
}

// Open creates the store named by config.Type and connects it
func (f *Factory) Open(ctx context.Context, config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
	storageType := config.Type
	if storageType == "" {
		storageType = constants.StorageTypeFile
	}

	store, err := f.CreateStorage(storageType, config)
	if err != nil {
		return nil, err
	}

	if err := store.Connect(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// GetSupportedTypes returns all supported storage types in name order
func (f *Factory) GetSupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.creators))
	for storageType := range f.creators {
		types = append(types, storageType)
	}
	sort.Strings(types)

	return types
}

// RegisterStorage registers a new storage type
func (f *Factory) RegisterStorage(storageType string, createFunc interfaces.StorageCreateFunc) error {
	if storageType == "" {
		return errors.NewConfigurationError("Storage type cannot be empty")
	}

	if createFunc == nil {
		return errors.NewConfigurationError("Storage create function cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[storageType] = createFunc
	return nil
}

// IsSupported checks if a storage type is supported
func (f *Factory) IsSupported(storageType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, exists := f.creators[storageType]
	return exists
}

func (f *Factory) registerDefaults() {
	f.RegisterStorage(constants.StorageTypeMemory, func(config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
		return memory.NewMemoryStorage(f.logger), nil
	})

	f.RegisterStorage(constants.StorageTypeFile, func(config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
		return file.NewFileStorage(&file.FileStorageConfig{
			BasePath:    config.File.BasePath,
			Compression: config.File.Compression,
			CreateDirs:  true,
		}, f.logger)
	})

	f.RegisterStorage(constants.StorageTypeRedis, func(config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
		prefix := config.Redis.KeyPrefix
		if prefix == "" {
			prefix = constants.DefaultKeyPrefix
		}
		return redisstore.NewRedisStorage(&redisstore.RedisConfig{
			Addr:         config.Redis.Address,
			Password:     config.Redis.Password,
			DB:           config.Redis.Database,
			DialTimeout:  constants.DefaultConnectionTimeout,
			ReadTimeout:  constants.DefaultStorageTimeout,
			WriteTimeout: constants.DefaultStorageTimeout,
			PoolSize:     config.Redis.PoolSize,
			MaxRetries:   3,
			TTL:          config.Redis.TTL,
			KeyPrefix:    prefix,
		}, f.logger)
	})

	f.RegisterStorage(constants.StorageTypeS3, func(config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
		region := config.S3.Region
		if region == "" {
			region = "us-east-1"
		}
		return s3store.NewS3Storage(&s3store.S3Config{
			Region:          region,
			Bucket:          config.S3.Bucket,
			AccessKeyID:     config.S3.AccessKeyID,
			SecretAccessKey: config.S3.SecretAccessKey,
			Endpoint:        config.S3.Endpoint,
			ForcePathStyle:  config.S3.ForcePathStyle,
			Prefix:          config.S3.Prefix,
			Timeout:         constants.DefaultStorageTimeout,
			MaxRetries:      3,
			UseCompression:  config.S3.UseCompression,
		}, f.logger)
	})

	f.RegisterStorage(constants.StorageTypePostgres, func(config interfaces.StorageConfig) (interfaces.DatasetStore, error) {
		return postgres.NewPostgresStorage(&postgres.PostgresConfig{
			DSN:            config.Postgres.DSN,
			ConnectTimeout: constants.DefaultConnectionTimeout,
			MaxConnections: config.Postgres.MaxConnections,
			MaxIdleConns:   config.Postgres.MaxConnections / 2,
		}, f.logger)
	})
}
