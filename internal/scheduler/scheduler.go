package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/appheap/tase/pkg/logger"
)

// Job is one periodic unit of background work.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler drives registered jobs on their own tickers. A job error is
// logged and the job keeps its schedule; only context cancellation stops
// the loops.
type Scheduler struct {
	jobs []Job
	log  *zap.Logger
}

// New builds an empty scheduler.
func New() *Scheduler {
	return &Scheduler{log: logger.Named("scheduler")}
}

// Add registers a job. Jobs with a non-positive interval are ignored.
func (s *Scheduler) Add(j Job) {
	if j.Interval() <= 0 {
		s.log.Warn("job disabled", zap.String("job", j.Name()))
		return
	}
	s.jobs = append(s.jobs, j)
}

// Run blocks until the context is cancelled, then waits for in-flight
// job runs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, j := range s.jobs {
		j := j
		g.Go(func() error { return s.runJob(ctx, j) })
	}
	return g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, j Job) error {
	ticker := time.NewTicker(j.Interval())
	defer ticker.Stop()

	s.log.Info("job scheduled",
		zap.String("job", j.Name()),
		zap.Duration("interval", j.Interval()),
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		if err := j.Run(ctx); err != nil {
			s.log.Error("job run failed",
				zap.String("job", j.Name()),
				zap.Duration("took", time.Since(start)),
				zap.Error(err),
			)
			continue
		}
		s.log.Debug("job run finished",
			zap.String("job", j.Name()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
