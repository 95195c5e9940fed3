package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/inferloop/datadrift/internal/drift"
	"github.com/inferloop/datadrift/internal/observability/metrics"
	"github.com/inferloop/datadrift/internal/quality"
	"github.com/inferloop/datadrift/pkg/constants"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/interfaces"
)

// Config is the full application configuration
type Config struct {
	Log     LogConfig                `mapstructure:"log"`
	Storage interfaces.StorageConfig `mapstructure:"storage"`
	Drift   drift.DriftConfig        `mapstructure:"drift"`
	Quality quality.QualityConfig    `mapstructure:"quality"`
	Metrics metrics.PrometheusConfig `mapstructure:"metrics"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Format: constants.DefaultLogFormat,
		},
		Storage: interfaces.StorageConfig{
			Type: constants.StorageTypeFile,
			File: interfaces.FileConfig{BasePath: constants.DefaultDataDir},
			Redis: interfaces.RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: constants.DefaultKeyPrefix,
				PoolSize:  constants.DefaultMaxConnections,
			},
			S3: interfaces.S3Config{
				Region: "us-east-1",
				Prefix: constants.AppName,
			},
			Postgres: interfaces.PostgresConfig{
				MaxConnections: constants.DefaultMaxConnections,
			},
		},
		Drift:   *drift.DefaultDriftConfig(),
		Quality: *quality.DefaultQualityConfig(),
		Metrics: *metrics.DefaultPrometheusConfig(),
	}
}

// Load reads configuration from cfgFile, or from $HOME/.datadrift/config.yaml
// when cfgFile is empty, then applies DATADRIFT_* environment overrides.
// A missing default config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+constants.AppName))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeInvalidConfig, "error reading config file")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, errors.CodeInvalidConfig, "error unmarshaling config")
	}

	config.Storage.File.BasePath = expandHome(config.Storage.File.BasePath)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Log.Level {
	case constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn, constants.LogLevelError:
	default:
		return errors.NewConfigurationError(fmt.Sprintf("invalid log level: %s", c.Log.Level))
	}

	switch c.Log.Format {
	case constants.LogFormatJSON, constants.LogFormatText:
	default:
		return errors.NewConfigurationError(fmt.Sprintf("invalid log format: %s", c.Log.Format))
	}

	switch c.Storage.Type {
	case constants.StorageTypeMemory, constants.StorageTypeFile, constants.StorageTypeRedis,
		constants.StorageTypeS3, constants.StorageTypePostgres:
	default:
		return errors.NewConfigurationError(fmt.Sprintf("invalid storage type: %s", c.Storage.Type))
	}

	if c.Drift.SignificanceLevel <= 0 || c.Drift.SignificanceLevel >= 1 {
		return errors.NewConfigurationError("drift.significance_level must be between 0 and 1")
	}

	return nil
}

// NewLogger builds a logger from the log settings
func NewLogger(config LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == constants.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.file.base_path", d.Storage.File.BasePath)
	v.SetDefault("storage.file.compression", d.Storage.File.Compression)
	v.SetDefault("storage.redis.address", d.Storage.Redis.Address)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.database", d.Storage.Redis.Database)
	v.SetDefault("storage.redis.key_prefix", d.Storage.Redis.KeyPrefix)
	v.SetDefault("storage.redis.ttl", d.Storage.Redis.TTL)
	v.SetDefault("storage.redis.pool_size", d.Storage.Redis.PoolSize)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.bucket", d.Storage.S3.Bucket)
	v.SetDefault("storage.s3.prefix", d.Storage.S3.Prefix)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.access_key_id", d.Storage.S3.AccessKeyID)
	v.SetDefault("storage.s3.secret_access_key", d.Storage.S3.SecretAccessKey)
	v.SetDefault("storage.s3.force_path_style", d.Storage.S3.ForcePathStyle)
	v.SetDefault("storage.s3.use_compression", d.Storage.S3.UseCompression)
	v.SetDefault("storage.postgres.dsn", d.Storage.Postgres.DSN)
	v.SetDefault("storage.postgres.max_connections", d.Storage.Postgres.MaxConnections)

	v.SetDefault("drift.significance_level", d.Drift.SignificanceLevel)
	v.SetDefault("drift.ks_score_threshold", d.Drift.KSScoreThreshold)
	v.SetDefault("drift.chi_square_score_threshold", d.Drift.ChiSquareScoreThreshold)
	v.SetDefault("drift.drift_share_threshold", d.Drift.DriftShareThreshold)
	v.SetDefault("drift.overall_score_threshold", d.Drift.OverallScoreThreshold)
	v.SetDefault("drift.min_samples", d.Drift.MinSamples)
	v.SetDefault("drift.psi_bins", d.Drift.PSIBins)
	v.SetDefault("drift.psi_smoothing", d.Drift.PSISmoothing)
	v.SetDefault("drift.workers", d.Drift.Workers)

	v.SetDefault("quality.iqr_multiplier", d.Quality.IQRMultiplier)
	v.SetDefault("quality.min_outlier_samples", d.Quality.MinOutlierSamples)
	v.SetDefault("quality.categorical_summary_limit", d.Quality.CategoricalSummaryLimit)
	v.SetDefault("quality.top_values", d.Quality.TopValues)
	v.SetDefault("quality.workers", d.Quality.Workers)

	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.push_gateway", d.Metrics.PushGateway)
	v.SetDefault("metrics.job_name", d.Metrics.JobName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
