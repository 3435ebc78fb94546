package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/database"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/logger"
)

const usernameCheckBatch = 50

// UsernameVerifier decides whether a mentioned username resolves to a
// real chat. The production implementation asks Telegram; tests stub it.
type UsernameVerifier func(ctx context.Context, username string) (bool, error)

// UsernameCheckJob visits usernames the crawler has not checked yet and
// records the verifier's verdict.
type UsernameCheckJob struct {
	db       *database.Database
	verify   UsernameVerifier
	interval time.Duration
	log      *zap.Logger
}

// NewUsernameCheckJob builds the checker job.
func NewUsernameCheckJob(db *database.Database, verify UsernameVerifier, interval time.Duration) *UsernameCheckJob {
	return &UsernameCheckJob{
		db:       db,
		verify:   verify,
		interval: interval,
		log:      logger.Named("scheduler.username_check"),
	}
}

func (j *UsernameCheckJob) Name() string            { return "username_check" }
func (j *UsernameCheckJob) Interval() time.Duration { return j.interval }

// Run checks one batch per tick. A verifier error skips the username so
// it gets retried on a later tick.
func (j *UsernameCheckJob) Run(ctx context.Context) error {
	batch := j.db.GetUncheckedUsernames(ctx, usernameCheckBatch)
	for _, u := range batch {
		valid, err := j.verify(ctx, u.Username)
		if err != nil {
			j.log.Debug("verification deferred",
				zap.String("username", u.Username), zap.Error(err))
			continue
		}
		if !j.db.MarkUsernameChecked(ctx, u, valid) {
			j.log.Warn("verdict not stored", zap.String("username", u.Username))
		}
	}
	return nil
}

// CountRefreshJob periodically refreshes the per-collection vertex counts
// served by the status endpoint.
type CountRefreshJob struct {
	db       *database.Database
	interval time.Duration
	log      *zap.Logger

	mu     sync.RWMutex
	counts map[string]int64
}

// NewCountRefreshJob builds the count refresher.
func NewCountRefreshJob(db *database.Database, interval time.Duration) *CountRefreshJob {
	return &CountRefreshJob{
		db:       db,
		interval: interval,
		log:      logger.Named("scheduler.count_refresh"),
		counts:   map[string]int64{},
	}
}

func (j *CountRefreshJob) Name() string            { return "count_refresh" }
func (j *CountRefreshJob) Interval() time.Duration { return j.interval }

func (j *CountRefreshJob) Run(ctx context.Context) error {
	counts := j.db.CollectionCounts(ctx)

	j.mu.Lock()
	j.counts = counts
	j.mu.Unlock()

	j.log.Debug("counts refreshed",
		zap.Int64("users", counts[models.UserSpec.Collection]),
		zap.Int64("audios", counts[models.AudioSpec.Collection]),
	)
	return nil
}

// Counts returns the last refreshed snapshot.
func (j *CountRefreshJob) Counts() map[string]int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[string]int64, len(j.counts))
	for k, v := range j.counts {
		out[k] = v
	}
	return out
}
