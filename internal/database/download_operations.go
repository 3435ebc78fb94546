package database

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/errors"
)

// RegisterHit records that an audio was surfaced to a user as a search
// result, keyed by the download token handed to the client.
func (db *Database) RegisterHit(ctx context.Context, downloadToken, query string, rank int64, score float64, audio *models.Audio) (*models.Hit, error) {
	hit, err := models.NewHit(downloadToken, query, rank, score, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	stored, ok := db.Hits.Insert(ctx, hit)
	if !ok {
		// Duplicate tokens mean a replayed result page; reuse the
		// earlier hit instead of failing the search.
		stored, err = db.Hits.Get(ctx, models.HitKey(downloadToken))
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, errors.NewQueryFailed("hit insert", nil)
		}
	}

	toAudio, err := models.NewToAudio(stored, audio)
	if err != nil {
		return nil, err
	}
	if _, err := db.ToAudio.GetOrCreate(ctx, toAudio); err != nil {
		return nil, err
	}
	return stored, nil
}

// RegisterDownload records a completed download and ties it back to the
// user, the audio, and the hit whose token triggered it. A missing or
// unknown token still counts the download, just without provenance.
func (db *Database) RegisterDownload(ctx context.Context, user *models.User, audio *models.Audio, hitToken string) (*models.Download, error) {
	dl, err := models.NewDownload(audio.Key, hitToken, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	stored, ok := db.Downloads.Insert(ctx, dl)
	if !ok {
		return nil, errors.NewQueryFailed("download insert", nil)
	}

	downloaded, err := models.NewDownloaded(user, stored)
	if err != nil {
		return nil, err
	}
	if _, err := db.Downloaded.GetOrCreate(ctx, downloaded); err != nil {
		return nil, err
	}

	toAudio, err := models.NewToAudio(stored, audio)
	if err != nil {
		return nil, err
	}
	if _, err := db.ToAudio.GetOrCreate(ctx, toAudio); err != nil {
		return nil, err
	}

	if hitToken == "" {
		return stored, nil
	}
	hit, err := db.Hits.Get(ctx, models.HitKey(hitToken))
	if err != nil {
		return nil, err
	}
	if hit == nil {
		db.log.Debug("download with unknown hit token", zap.String("token", hitToken))
		return stored, nil
	}

	fromHit, err := models.NewFromHit(stored, hit)
	if err != nil {
		return nil, err
	}
	if _, err := db.FromHit.GetOrCreate(ctx, fromHit); err != nil {
		return nil, err
	}
	return stored, nil
}
