package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datadrift/internal/utils/encoding"
	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

// fakeS3 keeps objects in a map. Unimplemented methods panic through the
// nil embedded interface.
type fakeS3 struct {
	s3iface.S3API
	mu      sync.Mutex
	objects map[string][]byte
	pageLen int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageLen: 2}
}

func (f *fakeS3) HeadBucketWithContext(ctx aws.Context, in *s3.HeadBucketInput, opts ...request.Option) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error {
	f.mu.Lock()
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.StringValue(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)

	for start := 0; start < len(keys) || start == 0; start += f.pageLen {
		end := start + f.pageLen
		if end > len(keys) {
			end = len(keys)
		}
		page := &s3.ListObjectsV2Output{}
		for _, key := range keys[start:end] {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key)})
		}
		last := end == len(keys)
		if !fn(page, last) || last {
			break
		}
	}
	return nil
}

func newConnectedStorage(t *testing.T, config *S3Config) (*S3Storage, *fakeS3) {
	t.Helper()

	storage, err := NewS3Storage(config, logrus.New())
	require.NoError(t, err)

	fake := newFakeS3()
	storage.client = fake
	require.NoError(t, storage.Connect(context.Background()))
	return storage, fake
}

func testDataset(id string, uploaded time.Time) *models.Dataset {
	return &models.Dataset{
		ID:          id,
		Filename:    id + ".csv",
		Columns:     []models.ColumnName{"age", "city"},
		Rows:        []models.Row{{"age": "30", "city": "Paris"}, {"age": "41"}},
		Schema:      map[models.ColumnName]models.ColumnType{"age": models.ColumnTypeNumeric, "city": models.ColumnTypeCategorical},
		RowCount:    2,
		ColumnCount: 2,
		UploadDate:  uploaded,
	}
}

func TestNewS3Storage(t *testing.T) {
	config := &S3Config{
		Region: "us-east-1",
		Bucket: "test-bucket",
	}

	logger := logrus.New()
	storage, err := NewS3Storage(config, logger)

	require.NoError(t, err)
	require.NotNil(t, storage)
	assert.Equal(t, config, storage.config)
	assert.Equal(t, logger, storage.logger)
}

func TestNewS3StorageInvalidConfig(t *testing.T) {
	_, err := NewS3Storage(nil, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 config cannot be nil")

	_, err = NewS3Storage(&S3Config{Region: "us-east-1"}, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 bucket is required")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestS3StorageGenerateKey(t *testing.T) {
	storage, err := NewS3Storage(&S3Config{Bucket: "test-bucket", Prefix: "test-prefix"}, logrus.New())
	require.NoError(t, err)

	assert.Equal(t, "test-prefix/datasets/ds-1/data.json", storage.generateKey("datasets", "ds-1", datasetDocument))

	storage.config.Prefix = ""
	assert.Equal(t, "reports/drift/dr-1.json", storage.generateKey("reports", "drift", "dr-1.json"))
}

func TestS3StorageRequiresConnection(t *testing.T) {
	storage, err := NewS3Storage(&S3Config{Bucket: "test-bucket"}, logrus.New())
	require.NoError(t, err)

	_, err = storage.GetDataset(context.Background(), "ds-1")
	assert.True(t, errors.Is(err, errors.ErrNotConnected))
}

func TestS3StorageDatasetRoundTrip(t *testing.T) {
	storage, fake := newConnectedStorage(t, &S3Config{Bucket: "test-bucket", Prefix: "drift"})
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SaveDataset(ctx, testDataset("ds-b", base.Add(time.Hour))))
	require.NoError(t, storage.SaveDataset(ctx, testDataset("ds-a", base)))
	require.NoError(t, storage.SaveDataset(ctx, testDataset("ds-c", base.Add(2*time.Hour))))

	assert.Contains(t, fake.objects, "drift/datasets/ds-a/data.json")
	assert.Contains(t, fake.objects, "drift/datasets/ds-a/summary.json")

	loaded, err := storage.GetDataset(ctx, "ds-a")
	require.NoError(t, err)
	assert.Equal(t, "ds-a.csv", loaded.Filename)
	assert.Len(t, loaded.Rows, 2)
	_, hasCity := loaded.Rows[1]["city"]
	assert.False(t, hasCity)

	summaries, err := storage.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "ds-a", summaries[0].ID)
	assert.Equal(t, "ds-b", summaries[1].ID)
	assert.Equal(t, "ds-c", summaries[2].ID)
}

func TestS3StorageMissingDataset(t *testing.T) {
	storage, _ := newConnectedStorage(t, &S3Config{Bucket: "test-bucket"})

	_, err := storage.GetDataset(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataNotFound))
	assert.Contains(t, err.Error(), "dataset 'nope' not found")
}

func TestS3StorageReports(t *testing.T) {
	storage, _ := newConnectedStorage(t, &S3Config{Bucket: "test-bucket"})
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, storage.SaveQualityReport(ctx, &models.QualityReport{ID: "q2", DatasetID: "ds-1", ComputedAt: now.Add(time.Minute)}))
	require.NoError(t, storage.SaveQualityReport(ctx, &models.QualityReport{ID: "q1", DatasetID: "ds-1", ComputedAt: now}))
	require.NoError(t, storage.SaveQualityReport(ctx, &models.QualityReport{ID: "q3", DatasetID: "ds-2", ComputedAt: now}))

	reports, err := storage.ListQualityReports(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "q1", reports[0].ID)
	assert.Equal(t, "q2", reports[1].ID)

	none, err := storage.ListQualityReports(ctx, "ds-unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, storage.SaveDriftReport(ctx, &models.DriftReport{ID: "d1", ReferenceDatasetID: "ds-1", TargetDatasetID: "ds-2", ReportDate: now}))
	drift, err := storage.ListDriftReports(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, "ds-2", drift[0].TargetDatasetID)
}

func TestS3StorageCompression(t *testing.T) {
	storage, fake := newConnectedStorage(t, &S3Config{Bucket: "test-bucket", UseCompression: true})
	ctx := context.Background()

	require.NoError(t, storage.SaveDataset(ctx, testDataset("ds-z", time.Now().UTC())))
	assert.True(t, encoding.IsGZIP(fake.objects["datasets/ds-z/data.json"]))

	loaded, err := storage.GetDataset(ctx, "ds-z")
	require.NoError(t, err)
	assert.Equal(t, "ds-z", loaded.ID)
}

func TestS3StorageClose(t *testing.T) {
	storage, _ := newConnectedStorage(t, &S3Config{Bucket: "test-bucket"})

	require.NoError(t, storage.Close())
	require.NoError(t, storage.Close())
	assert.True(t, errors.Is(storage.HealthCheck(context.Background()), errors.ErrNotConnected))
}
