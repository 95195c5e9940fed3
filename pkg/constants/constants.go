package constants

import "time"

// Application constants
const (
	// Application metadata
	AppName        = "datadrift"
	AppDescription = "Dataset quality and drift analysis"
	AppVersion     = "0.1.0"

	// Environment variable prefix read by viper
	EnvPrefix = "DATADRIFT"

	// Default configuration values
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultDataDir   = "~/.datadrift/data"

	// Drift defaults
	DefaultSignificanceLevel       = 0.05
	DefaultKSScoreThreshold        = 0.1
	DefaultChiSquareScoreThreshold = 0.15
	DefaultDriftShareThreshold     = 0.3
	DefaultOverallScoreThreshold   = 0.15
	DefaultPSIBins                 = 10
	DefaultPSISmoothing            = 0.0001
	MinDriftSamples                = 2

	// Quality defaults
	DefaultIQRMultiplier           = 1.5
	MinOutlierSamples              = 4
	DefaultCategoricalSummaryLimit = 5
	DefaultTopValues               = 10

	// Storage defaults
	DefaultStorageTimeout    = 30 * time.Second
	DefaultMaxConnections    = 10
	DefaultConnectionTimeout = 10 * time.Second
	DefaultKeyPrefix         = "datadrift"

	// Listing limits
	MaxDatasetListing       = 1000
	MaxQualityReportListing = 100
	MaxDriftReportListing   = 100
)

// Log levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Storage backends
const (
	StorageTypeMemory   = "memory"
	StorageTypeFile     = "file"
	StorageTypeRedis    = "redis"
	StorageTypeS3       = "s3"
	StorageTypePostgres = "postgres"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Test names reported on column drift results
const (
	TestKolmogorovSmirnov = "Kolmogorov-Smirnov"
	TestChiSquare         = "Chi-Square"
)

// Skip reasons for drift columns
const (
	SkipMissingInTarget     = "missing_in_target"
	SkipMissingInReference  = "missing_in_reference"
	SkipTypeMismatch        = "type_mismatch"
	SkipInsufficientSamples = "insufficient_samples"
)

// Check kinds used in metrics labels
const (
	CheckKindQuality = "quality"
	CheckKindDrift   = "drift"
)

// Display formats
const (
	DisplayDateFormat = "Jan 2, 2006 15:04"
	UnnamedColumnFmt  = "Unnamed: %d"
)

// NullTokens are cell values treated as missing after trimming whitespace.
var NullTokens = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null",
	"None", "<NA>", "#N/A", "-NaN", "-nan",
}
