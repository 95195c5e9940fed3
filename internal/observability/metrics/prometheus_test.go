package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheck(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	pm.RecordCheck("drift", StatusSuccess, 20*time.Millisecond)
	pm.RecordCheck("drift", StatusSuccess, 30*time.Millisecond)
	pm.RecordCheck("quality", StatusError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.checksTotal.WithLabelValues("drift", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.checksTotal.WithLabelValues("quality", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(pm.checkDuration))
}

func TestRecordDriftResult(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	pm.RecordDriftResult(4, true)
	pm.RecordDriftResult(3, false)

	assert.Equal(t, 3.0, testutil.ToFloat64(pm.driftColumnsTested))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.driftDetectedTotal))
}

func TestRecordStorageOperation(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	pm.RecordStorageOperation("file", "save_dataset", StatusSuccess, time.Millisecond)

	expected := `
# HELP datadrift_storage_operations_total Total number of storage operations
# TYPE datadrift_storage_operations_total counter
datadrift_storage_operations_total{backend="file",operation="save_dataset",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(pm.Registry(), strings.NewReader(expected), "datadrift_storage_operations_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var pm *PrometheusMetrics

	assert.NotPanics(t, func() {
		pm.RecordCheck("drift", StatusSuccess, time.Second)
		pm.RecordDriftResult(1, true)
		pm.RecordStorageOperation("memory", "get_dataset", StatusError, time.Second)
	})
	assert.NoError(t, pm.Push(context.Background()))
}

func TestPushWithoutGateway(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	assert.NoError(t, pm.Push(context.Background()))
}

func TestPushToGateway(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pm, err := NewPrometheusMetrics(&PrometheusConfig{
		Namespace:   "datadrift",
		PushGateway: server.URL,
		JobName:     "drift-cli",
		Labels:      map[string]string{"instance": "ci"},
	}, logrus.New())
	require.NoError(t, err)

	pm.RecordCheck("quality", StatusSuccess, time.Millisecond)
	require.NoError(t, pm.Push(context.Background()))
	assert.Equal(t, "/metrics/job/drift-cli/instance/ci", path)
}
