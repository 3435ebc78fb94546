package database

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/internal/models"
)

// GetUncheckedUsernames returns a batch of mentioned usernames the
// checker job has not visited yet.
func (db *Database) GetUncheckedUsernames(ctx context.Context, limit int64) []*models.Username {
	cursor, err := db.Usernames.Find(ctx,
		map[string]any{"is_checked": false},
		graph.FilterOutSoftDeleted(), graph.WithLimit(int(limit)))
	if err != nil {
		db.log.Error("unchecked username lookup failed", zap.Error(err))
		return nil
	}
	return cursor.Collect()
}

// MarkUsernameChecked records the checker's verdict on a username.
func (db *Database) MarkUsernameChecked(ctx context.Context, u *models.Username, valid bool) bool {
	next := *u
	next.IsChecked = true
	next.CheckedAt = time.Now().Unix()
	next.IsValid = valid
	return db.Usernames.Update(ctx, u, &next)
}
