package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/datadrift/pkg/constants"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PrometheusMetrics records check and storage activity on a private registry.
// A nil *PrometheusMetrics is valid and records nothing.
type PrometheusMetrics struct {
	logger   *logrus.Logger
	registry *prometheus.Registry
	config   *PrometheusConfig

	checksTotal            *prometheus.CounterVec
	checkDuration          *prometheus.HistogramVec
	driftColumnsTested     prometheus.Gauge
	driftDetectedTotal     prometheus.Counter
	storageOperationsTotal *prometheus.CounterVec
	storageDuration        *prometheus.HistogramVec
}

// PrometheusConfig configures Prometheus metrics
type PrometheusConfig struct {
	Namespace   string            `json:"namespace" mapstructure:"namespace"`
	PushGateway string            `json:"push_gateway" mapstructure:"push_gateway"`
	JobName     string            `json:"job_name" mapstructure:"job_name"`
	Labels      map[string]string `json:"labels" mapstructure:"labels"`
}

// DefaultPrometheusConfig returns the configuration used when none is given
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace: constants.AppName,
		JobName:   constants.AppName,
	}
}

// NewPrometheusMetrics creates a new Prometheus metrics instance
func NewPrometheusMetrics(config *PrometheusConfig, logger *logrus.Logger) (*PrometheusMetrics, error) {
	if config == nil {
		config = DefaultPrometheusConfig()
	}

	if logger == nil {
		logger = logrus.New()
	}

	pm := &PrometheusMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		config:   config,
	}

	pm.initializeMetrics()

	if err := pm.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return pm, nil
}

// Registry exposes the underlying registry
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// RecordCheck records a finished quality or drift check
func (pm *PrometheusMetrics) RecordCheck(kind, status string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.checksTotal.WithLabelValues(kind, status).Inc()
	pm.checkDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDriftResult records the outcome of a successful drift check
func (pm *PrometheusMetrics) RecordDriftResult(columnsTested int, detected bool) {
	if pm == nil {
		return
	}
	pm.driftColumnsTested.Set(float64(columnsTested))
	if detected {
		pm.driftDetectedTotal.Inc()
	}
}

// RecordStorageOperation records a store call
func (pm *PrometheusMetrics) RecordStorageOperation(backend, operation, status string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.storageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	pm.storageDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// Push sends the registry to the configured Pushgateway. It is a no-op
// when no gateway is configured.
func (pm *PrometheusMetrics) Push(ctx context.Context) error {
	if pm == nil || pm.config.PushGateway == "" {
		return nil
	}

	jobName := pm.config.JobName
	if jobName == "" {
		jobName = constants.AppName
	}

	pusher := push.New(pm.config.PushGateway, jobName).Gatherer(pm.registry)
	for name, value := range pm.config.Labels {
		pusher = pusher.Grouping(name, value)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", pm.config.PushGateway, err)
	}

	pm.logger.WithFields(logrus.Fields{
		"gateway": pm.config.PushGateway,
		"job":     jobName,
	}).Debug("Pushed metrics")

	return nil
}

func (pm *PrometheusMetrics) initializeMetrics() {
	namespace := pm.config.Namespace

	pm.checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of quality and drift checks",
		},
		[]string{"kind", "status"},
	)

	pm.checkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Check duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	pm.driftColumnsTested = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drift_columns_tested",
			Help:      "Number of columns tested by the last drift check",
		},
	)

	pm.driftDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_detected_total",
			Help:      "Total number of drift checks that detected drift",
		},
	)

	pm.storageOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total number of storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	pm.storageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
}

func (pm *PrometheusMetrics) registerMetrics() error {
	metrics := []prometheus.Collector{
		pm.checksTotal,
		pm.checkDuration,
		pm.driftColumnsTested,
		pm.driftDetectedTotal,
		pm.storageOperationsTotal,
		pm.storageDuration,
	}

	for _, metric := range metrics {
		if err := pm.registry.Register(metric); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return nil
}
