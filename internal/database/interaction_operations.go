package database

import (
	"context"
	"time"

	"github.com/appheap/tase/internal/models"
)

// ToggleSubscription flips a user's subscription to a public playlist.
// The first toggle creates the edge active; later toggles invert
// IsActive in place so the subscription history is never lost.
func (db *Database) ToggleSubscription(ctx context.Context, user *models.User, playlist *models.Playlist) (*models.SubscribedTo, error) {
	now := time.Now().Unix()

	existing, err := db.SubscribedTo.Get(ctx, models.SubscribedToKey(user, playlist))
	if err != nil {
		return nil, err
	}

	active := true
	if existing != nil {
		active = !existing.IsActive
	}

	sub, err := models.NewSubscribedTo(user, playlist, active, now)
	if err != nil {
		return nil, err
	}
	return db.SubscribedTo.UpdateOrCreate(ctx, sub)
}

// GetSubscription reports the current subscription edge, nil when the
// user never subscribed.
func (db *Database) GetSubscription(ctx context.Context, user *models.User, playlist *models.Playlist) (*models.SubscribedTo, error) {
	return db.SubscribedTo.Get(ctx, models.SubscribedToKey(user, playlist))
}
