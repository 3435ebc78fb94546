package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/errors"
)

const playlistKeyLength = 12
const playlistKeyAttempts = 10

// generateUnusedPlaylistKey draws random keys until one is confirmed
// absent. The check-then-use window is racy under concurrent creation;
// that is accepted because the unique `_key` constraint makes the losing
// creator fail its insert instead of colliding silently.
func (db *Database) generateUnusedPlaylistKey(ctx context.Context) (string, error) {
	for i := 0; i < playlistKeyAttempts; i++ {
		key := strings.ReplaceAll(uuid.NewString(), "-", "")[:playlistKeyLength]
		exists, known := db.Playlists.Has(ctx, key)
		if !known {
			return "", errors.NewQueryFailed("playlist key check", nil)
		}
		if !exists {
			return key, nil
		}
	}
	return "", errors.NewQueryFailed("playlist key space exhausted", nil)
}

// CreatePlaylist inserts a playlist owned by the user and the Has edge
// tying it to the owner.
func (db *Database) CreatePlaylist(ctx context.Context, owner *models.User, title, description string) (*models.Playlist, error) {
	key, err := db.generateUnusedPlaylistKey(ctx)
	if err != nil {
		return nil, err
	}

	p, err := models.NewPlaylist(key, owner, title, description)
	if err != nil {
		return nil, err
	}
	if _, ok := db.Playlists.Insert(ctx, p); !ok {
		return nil, errors.NewQueryFailed("playlist insert", nil)
	}

	has, err := models.NewHas(owner, p)
	if err != nil {
		return nil, err
	}
	if _, err := db.Has.GetOrCreate(ctx, has); err != nil {
		return nil, err
	}
	return p, nil
}

// GetUserPlaylist fetches one playlist and confirms the user owns it.
func (db *Database) GetUserPlaylist(ctx context.Context, owner *models.User, playlistKey string) (*models.Playlist, error) {
	p, err := db.Playlists.Get(ctx, playlistKey)
	if err != nil || p == nil {
		return nil, err
	}

	has, err := db.Has.Get(ctx, models.HasKey(owner, p))
	if err != nil {
		return nil, err
	}
	if has == nil {
		return nil, nil
	}
	return p, nil
}

// AddAudioToPlaylist is a get-or-create of the membership edge; adding
// the same audio twice is a no-op.
func (db *Database) AddAudioToPlaylist(ctx context.Context, owner *models.User, playlistKey string, audio *models.Audio) (*models.Has, error) {
	p, err := db.GetUserPlaylist(ctx, owner, playlistKey)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	has, err := models.NewHas(p, audio)
	if err != nil {
		return nil, err
	}
	return db.Has.GetOrCreate(ctx, has)
}

// RemoveAudioFromPlaylist severs the membership edge and keeps a Had
// record carrying the deletion timestamp.
func (db *Database) RemoveAudioFromPlaylist(ctx context.Context, owner *models.User, playlistKey string, audio *models.Audio, deletedAt int64) error {
	p, err := db.GetUserPlaylist(ctx, owner, playlistKey)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return db.retireHas(ctx, p, audio, deletedAt)
}

// RemovePlaylist tears a playlist down without losing history: the
// ownership edge is swapped for a Had record and the playlist itself is
// soft-deleted, so downloads that went through it stay explainable.
func (db *Database) RemovePlaylist(ctx context.Context, owner *models.User, playlistKey string, deletedAt int64) error {
	p, err := db.GetUserPlaylist(ctx, owner, playlistKey)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	if err := db.retireHas(ctx, owner, p, deletedAt); err != nil {
		return err
	}

	if ok, serr := db.Playlists.SoftDelete(ctx, p, deletedAt, true); serr != nil {
		return serr
	} else if !ok {
		db.log.Error("playlist soft delete lost", zap.String("key", playlistKey))
		return errors.NewQueryFailed("playlist soft delete", nil)
	}
	return nil
}

// ToggleFavorite flips the favorite flag in place. The field is reserved
// against ordinary updates, so the toggle is the one writer allowed to
// touch it.
func (db *Database) ToggleFavorite(ctx context.Context, owner *models.User, playlistKey string) (*models.Playlist, error) {
	p, err := db.GetUserPlaylist(ctx, owner, playlistKey)
	if err != nil || p == nil {
		return nil, err
	}

	next := *p
	next.IsFavorite = !p.IsFavorite
	if !db.Playlists.Update(ctx, p, &next, graph.SkipFieldReservation()) {
		return nil, errors.NewQueryFailed("favorite toggle", nil)
	}
	return p, nil
}

// retireHas replaces a live Has edge with its historical Had record.
func (db *Database) retireHas(ctx context.Context, from, to graph.Vertex, deletedAt int64) error {
	if deletedAt == 0 {
		deletedAt = time.Now().Unix()
	}

	had, err := models.NewHad(from, to, deletedAt)
	if err != nil {
		return err
	}
	if _, err := db.Had.GetOrCreate(ctx, had); err != nil {
		return err
	}

	if !db.Has.DeleteByKey(ctx, models.HasKey(from, to)) {
		return errors.NewQueryFailed("has edge delete", nil)
	}
	return nil
}
