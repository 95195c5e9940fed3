package pool

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inferloop/datadrift/pkg/errors"
)

// Task processes the item at index i. Each task must only write to its own
// result slot.
type Task func(ctx context.Context, i int) error

// Pool runs independent per-column tasks with bounded parallelism
type Pool struct {
	workers int
	logger  *logrus.Logger
}

// New creates a pool. workers <= 0 uses GOMAXPROCS.
func New(workers int, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pool{workers: workers, logger: logger}
}

// Workers returns the parallelism limit
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes task for every index in [0, n). The context is checked before
// each task starts. The first task error stops scheduling and is returned;
// cancellation of ctx is returned as a job-cancelled error.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	if n == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, idx)
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.logger.WithFields(logrus.Fields{
			"tasks": n,
			"error": ctxErr,
		}).Debug("Pool run cancelled")
		return errors.NewCancelledError(ctxErr)
	}
	return err
}
