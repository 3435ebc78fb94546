package database

import (
	"context"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/models"
)

// GetOrCreateUser returns the stored user for the Telegram id, inserting
// a fresh vertex on first sight. Concurrent first sights settle on the
// unique key; the loser refetches.
func (db *Database) GetOrCreateUser(ctx context.Context, telegramID int64, firstName, lastName, username, languageCode string, isBot bool) (*models.User, error) {
	existing, err := db.Users.Get(ctx, models.UserKey(telegramID))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	u, err := models.NewUser(telegramID, firstName, lastName, username, languageCode, isBot)
	if err != nil {
		return nil, err
	}
	if _, ok := db.Users.Insert(ctx, u); ok {
		return u, nil
	}
	return db.Users.Get(ctx, models.UserKey(telegramID))
}

// UpdateOrCreateUser refreshes the stored profile fields from a fresh
// sighting, or inserts the user when absent. Identity and created_at are
// preserved by the update path.
func (db *Database) UpdateOrCreateUser(ctx context.Context, telegramID int64, firstName, lastName, username, languageCode string, isBot bool) (*models.User, error) {
	fresh, err := models.NewUser(telegramID, firstName, lastName, username, languageCode, isBot)
	if err != nil {
		return nil, err
	}

	existing, err := db.Users.Get(ctx, fresh.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if _, ok := db.Users.Insert(ctx, fresh); ok {
			return fresh, nil
		}
		return db.Users.Get(ctx, fresh.Key)
	}

	if !db.Users.Update(ctx, existing, fresh) {
		db.log.Debug("user update lost", zap.Int64("telegram_id", telegramID))
		return existing, nil
	}
	return existing, nil
}
