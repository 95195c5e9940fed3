package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/internal/config"
	"github.com/inferloop/datadrift/internal/observability/metrics"
	"github.com/inferloop/datadrift/internal/storage"
)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	Verbose    bool
}

// withService loads configuration, opens the configured store and runs fn
// against an analysis service. The store is closed and metrics are pushed
// when fn returns.
func withService(cmd *cobra.Command, global *GlobalOptions, fn func(ctx context.Context, svc *analysis.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(global.ConfigFile)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Log)
	logger.SetOutput(cmd.ErrOrStderr())
	if global.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	m, err := metrics.NewPrometheusMetrics(&cfg.Metrics, logger)
	if err != nil {
		return err
	}

	store, err := storage.NewFactory(logger).Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := analysis.NewService(
		storage.Instrument(store, cfg.Storage.Type, m),
		&analysis.ServiceConfig{Quality: &cfg.Quality, Drift: &cfg.Drift},
		logger,
		analysis.WithMetrics(m),
	)

	runErr := fn(ctx, svc)

	if err := m.Push(ctx); err != nil {
		logger.WithError(err).Warn("Failed to push metrics")
	}

	return runErr
}
