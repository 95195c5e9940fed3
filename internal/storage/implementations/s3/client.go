package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/internal/storage/listing"
	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

const (
	datasetDocument = "data.json"
	summaryDocument = "summary.json"
)

// S3Config holds configuration for S3 storage
type S3Config struct {
	Region          string        `json:"region"`
	Bucket          string        `json:"bucket"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	SessionToken    string        `json:"session_token,omitempty"`
	Endpoint        string        `json:"endpoint,omitempty"`
	ForcePathStyle  bool          `json:"force_path_style"`
	DisableSSL      bool          `json:"disable_ssl"`
	Prefix          string        `json:"prefix"`
	Timeout         time.Duration `json:"timeout"`
	MaxRetries      int           `json:"max_retries"`
	UseCompression  bool          `json:"use_compression"`
	StorageClass    string        `json:"storage_class"`
}

// S3Storage stores datasets and reports as JSON objects using the same
// layout as the file store, rooted at the configured prefix.
type S3Storage struct {
	config *S3Config
	client s3iface.S3API
	codec  *encoding.DocumentCodec
	logger *logrus.Logger
	mu     sync.RWMutex
	closed bool
}

// NewS3Storage creates a new S3 storage instance
func NewS3Storage(config *S3Config, logger *logrus.Logger) (*S3Storage, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("S3 config cannot be nil")
	}

	if config.Bucket == "" {
		return nil, errors.NewConfigurationError("S3 bucket is required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &S3Storage{
		config: config,
		codec:  encoding.NewDocumentCodec(config.UseCompression),
		logger: logger,
	}, nil
}

// Connect creates the AWS session and checks bucket access
func (s *S3Storage) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		awsConfig := &aws.Config{
			Region:     aws.String(s.config.Region),
			MaxRetries: aws.Int(s.config.MaxRetries),
		}

		if s.config.AccessKeyID != "" && s.config.SecretAccessKey != "" {
			awsConfig.Credentials = credentials.NewStaticCredentials(
				s.config.AccessKeyID,
				s.config.SecretAccessKey,
				s.config.SessionToken,
			)
		}

		// S3-compatible services
		if s.config.Endpoint != "" {
			awsConfig.Endpoint = aws.String(s.config.Endpoint)
			awsConfig.S3ForcePathStyle = aws.Bool(s.config.ForcePathStyle)
		}

		if s.config.DisableSSL {
			awsConfig.DisableSSL = aws.Bool(true)
		}

		sess, err := session.NewSession(awsConfig)
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Failed to create AWS session")
		}
		s.client = s3.New(sess)
	}

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed,
			fmt.Sprintf("Failed to access bucket '%s'", s.config.Bucket))
	}

	s.closed = false

	s.logger.WithFields(logrus.Fields{
		"region": s.config.Region,
		"bucket": s.config.Bucket,
	}).Info("Connected to S3")

	return nil
}

// Close closes the S3 connection
func (s *S3Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.logger.Info("S3 connection closed")
	return nil
}

// HealthCheck checks bucket access
func (s *S3Storage) HealthCheck(ctx context.Context) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	_, err = client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "S3 health check failed")
	}
	return nil
}

// SaveDataset uploads the dataset document and its summary
func (s *S3Storage) SaveDataset(ctx context.Context, dataset *models.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return errors.NewInvalidDatasetError("dataset and dataset ID are required")
	}

	if err := s.putDocument(ctx, s.generateKey("datasets", dataset.ID, datasetDocument), dataset); err != nil {
		return err
	}
	if err := s.putDocument(ctx, s.generateKey("datasets", dataset.ID, summaryDocument), dataset.Summary()); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"bucket":     s.config.Bucket,
	}).Debug("Uploaded dataset to S3")
	return nil
}

// GetDataset downloads a dataset
func (s *S3Storage) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	var dataset models.Dataset
	if err := s.getDocument(ctx, s.generateKey("datasets", id, datasetDocument), &dataset); err != nil {
		if errors.Is(err, errors.ErrDataNotFound) {
			return nil, errors.NewNotFoundError("dataset", id)
		}
		return nil, err
	}
	return &dataset, nil
}

// ListDatasets returns dataset summaries ordered by upload date
func (s *S3Storage) ListDatasets(ctx context.Context) ([]*models.DatasetSummary, error) {
	keys, err := s.listKeys(ctx, s.generateKey("datasets")+"/", "/"+summaryDocument)
	if err != nil {
		return nil, err
	}

	items := make([]*models.DatasetSummary, 0, len(keys))
	for _, key := range keys {
		var summary models.DatasetSummary
		if err := s.getDocument(ctx, key, &summary); err != nil {
			return nil, err
		}
		items = append(items, &summary)
	}
	return listing.Datasets(items), nil
}

// SaveQualityReport uploads a quality report
func (s *S3Storage) SaveQualityReport(ctx context.Context, report *models.QualityReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "quality report and report ID are required")
	}
	return s.putDocument(ctx, s.generateKey("reports", "quality", report.DatasetID, report.ID+".json"), report)
}

// ListQualityReports returns the quality reports of a dataset
func (s *S3Storage) ListQualityReports(ctx context.Context, datasetID string) ([]*models.QualityReport, error) {
	keys, err := s.listKeys(ctx, s.generateKey("reports", "quality", datasetID)+"/", ".json")
	if err != nil {
		return nil, err
	}

	items := make([]*models.QualityReport, 0, len(keys))
	for _, key := range keys {
		var report models.QualityReport
		if err := s.getDocument(ctx, key, &report); err != nil {
			return nil, err
		}
		items = append(items, &report)
	}
	return listing.QualityReports(items), nil
}

// SaveDriftReport uploads a drift report
func (s *S3Storage) SaveDriftReport(ctx context.Context, report *models.DriftReport) error {
	if report == nil || report.ID == "" {
		return errors.NewStorageError(errors.CodeWriteFailed, "drift report and report ID are required")
	}
	return s.putDocument(ctx, s.generateKey("reports", "drift", report.ID+".json"), report)
}

// ListDriftReports returns drift reports ordered by report date
func (s *S3Storage) ListDriftReports(ctx context.Context) ([]*models.DriftReport, error) {
	keys, err := s.listKeys(ctx, s.generateKey("reports", "drift")+"/", ".json")
	if err != nil {
		return nil, err
	}

	items := make([]*models.DriftReport, 0, len(keys))
	for _, key := range keys {
		var report models.DriftReport
		if err := s.getDocument(ctx, key, &report); err != nil {
			return nil, err
		}
		items = append(items, &report)
	}
	return listing.DriftReports(items), nil
}

func (s *S3Storage) putDocument(ctx context.Context, key string, v interface{}) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	data, err := s.codec.Encode(v)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode document")
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if s.codec.Compressed() {
		input.ContentEncoding = aws.String("gzip")
	}
	if s.config.StorageClass != "" {
		input.StorageClass = aws.String(s.config.StorageClass)
	}

	if _, err := client.PutObjectWithContext(ctx, input); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed,
			fmt.Sprintf("Failed to upload object '%s'", key))
	}
	return nil
}

func (s *S3Storage) getDocument(ctx context.Context, key string, v interface{}) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NewNotFoundError("object", key)
		}
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("Failed to download object '%s'", key))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to read object body")
	}

	if err := s.codec.Decode(data, v); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed,
			fmt.Sprintf("failed to decode object '%s'", key))
	}
	return nil
}

// listKeys returns every key under prefix that ends with suffix
func (s *S3Storage) listKeys(ctx context.Context, prefix, suffix string) ([]string, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	var keys []string
	err = client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, suffix) {
				keys = append(keys, key)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "Failed to list S3 objects")
	}
	return keys, nil
}

func (s *S3Storage) getClient() (s3iface.S3API, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.client == nil {
		return nil, errors.NewStorageError(errors.CodeNotConnected, "S3 not connected")
	}
	return s.client, nil
}

func (s *S3Storage) generateKey(parts ...string) string {
	if s.config.Prefix != "" {
		return path.Join(append([]string{s.config.Prefix}, parts...)...)
	}
	return path.Join(parts...)
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
