package database

import (
	"context"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/models"
)

// GetOrCreateAudio stores an audio found in a chat message together with
// its structural edges: provenance to the chat and a reference to the
// backing file. The audio vertex deduplicates on chat id + message id.
func (db *Database) GetOrCreateAudio(ctx context.Context, audio *models.Audio, chat *models.Chat, file *models.File) (*models.Audio, error) {
	existing, err := db.Audios.Get(ctx, audio.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if _, ok := db.Audios.Insert(ctx, audio); ok {
			existing = audio
		} else if existing, err = db.Audios.Get(ctx, audio.Key); err != nil || existing == nil {
			return nil, err
		}
	}

	if chat != nil {
		sentBy, serr := models.NewSentBy(existing, chat)
		if serr != nil {
			return nil, serr
		}
		if _, serr := db.SentBy.GetOrCreate(ctx, sentBy); serr != nil {
			return nil, serr
		}
	}

	if file != nil {
		storedFile, ferr := db.Files.Get(ctx, file.Key)
		if ferr != nil {
			return nil, ferr
		}
		if storedFile == nil {
			if _, ok := db.Files.Insert(ctx, file); ok {
				storedFile = file
			} else if storedFile, ferr = db.Files.Get(ctx, file.Key); ferr != nil || storedFile == nil {
				return nil, ferr
			}
		}
		ref, rerr := models.NewFileRef(existing, storedFile)
		if rerr != nil {
			return nil, rerr
		}
		if _, rerr := db.FileRef.GetOrCreate(ctx, ref); rerr != nil {
			return nil, rerr
		}
	}

	return existing, nil
}

// MarkAudioDeleted soft-deletes an audio whose source message is gone.
// When the deletion was noticed by absence rather than an explicit event,
// the timestamp is an estimate and precise is false.
func (db *Database) MarkAudioDeleted(ctx context.Context, audio *models.Audio, deletedAt int64, precise bool) bool {
	ok, err := db.Audios.SoftDelete(ctx, audio, deletedAt, precise)
	if err != nil {
		db.log.Error("audio soft delete misuse", zap.Error(err))
		return false
	}
	return ok
}
