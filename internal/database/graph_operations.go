package database

import (
	"context"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/models"
)

// Traversal queries the typed clients cannot express on their own.
// Labels and relationship types go through `@` placeholders; everything
// user-provided travels as driver parameters.

const playlistAudiosQuery = `
MATCH (p:@playlists {_key: $key})-[:@has]->(a:@audios)
WHERE NOT coalesce(a.is_soft_deleted, false)
RETURN properties(a) AS doc
ORDER BY a._key
SKIP $offset LIMIT $limit`

const userPlaylistsQuery = `
MATCH (u:@users {_key: $key})-[:@has]->(p:@playlists)
WHERE NOT coalesce(p.is_soft_deleted, false)
RETURN properties(p) AS doc
ORDER BY p._key
SKIP $offset LIMIT $limit`

const audioFileQuery = `
MATCH (a:@audios {_key: $key})-[:@ref]->(f:@files)
RETURN properties(f) AS doc
LIMIT 1`

const hitAudioQuery = `
MATCH (h:@hits {_key: $key})-[:@to]->(a:@audios)
WHERE NOT coalesce(a.is_soft_deleted, false)
RETURN properties(a) AS doc
LIMIT 1`

const vertexCountQuery = `MATCH (n:@col) RETURN count(n) AS total`

// GetPlaylistAudios walks the membership edges of a playlist and decodes
// the live audios on the far side. Rows that fail to decode are skipped.
func (db *Database) GetPlaylistAudios(ctx context.Context, playlistKey string, offset, limit int64) []*models.Audio {
	rows := db.exec.Read(ctx, playlistAudiosQuery, map[string]string{
		"playlists": models.PlaylistSpec.Collection,
		"has":       models.HasSpec.Collection,
		"audios":    models.AudioSpec.Collection,
	}, map[string]any{"key": playlistKey, "offset": offset, "limit": limit})

	out := make([]*models.Audio, 0, len(rows))
	for _, row := range rows {
		doc, ok := row["doc"].(map[string]any)
		if !ok {
			continue
		}
		a := &models.Audio{}
		if err := db.Audios.Mapper().FromDocument(doc, a); err != nil {
			db.log.Debug("skipping undecodable audio", zap.Error(err))
			continue
		}
		out = append(out, a)
	}
	return out
}

// GetUserPlaylists lists the live playlists a user owns.
func (db *Database) GetUserPlaylists(ctx context.Context, user *models.User, offset, limit int64) []*models.Playlist {
	rows := db.exec.Read(ctx, userPlaylistsQuery, map[string]string{
		"users":     models.UserSpec.Collection,
		"has":       models.HasSpec.Collection,
		"playlists": models.PlaylistSpec.Collection,
	}, map[string]any{"key": user.Key, "offset": offset, "limit": limit})

	out := make([]*models.Playlist, 0, len(rows))
	for _, row := range rows {
		doc, ok := row["doc"].(map[string]any)
		if !ok {
			continue
		}
		p := &models.Playlist{}
		if err := db.Playlists.Mapper().FromDocument(doc, p); err != nil {
			db.log.Debug("skipping undecodable playlist", zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

// GetAudioFile resolves the file record behind an audio, nil when the
// audio has no stored file yet.
func (db *Database) GetAudioFile(ctx context.Context, audio *models.Audio) *models.File {
	rows := db.exec.Read(ctx, audioFileQuery, map[string]string{
		"audios": models.AudioSpec.Collection,
		"ref":    models.FileRefSpec.Collection,
		"files":  models.FileSpec.Collection,
	}, map[string]any{"key": audio.Key})
	if len(rows) == 0 {
		return nil
	}
	doc, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return nil
	}
	f := &models.File{}
	if err := db.Files.Mapper().FromDocument(doc, f); err != nil {
		db.log.Debug("skipping undecodable file", zap.Error(err))
		return nil
	}
	return f
}

// HitAudio resolves the live audio a hit points at, nil when the audio
// was never linked or has since been soft-deleted.
func (db *Database) HitAudio(ctx context.Context, hit *models.Hit) (*models.Audio, error) {
	rows := db.exec.Read(ctx, hitAudioQuery, map[string]string{
		"hits":   models.HitSpec.Collection,
		"to":     models.ToAudioSpec.Collection,
		"audios": models.AudioSpec.Collection,
	}, map[string]any{"key": hit.Key})
	if len(rows) == 0 {
		return nil, nil
	}
	doc, ok := rows[0]["doc"].(map[string]any)
	if !ok {
		return nil, nil
	}
	a := &models.Audio{}
	if err := db.Audios.Mapper().FromDocument(doc, a); err != nil {
		db.log.Debug("skipping undecodable audio", zap.Error(err))
		return nil, nil
	}
	return a, nil
}

// CollectionCounts reports the vertex count per collection, used by the
// status endpoint and the periodic refresh job. Collections whose count
// query fails are reported as -1.
func (db *Database) CollectionCounts(ctx context.Context) map[string]int64 {
	counts := make(map[string]int64)
	for _, col := range models.VertexCollections() {
		rows := db.exec.Read(ctx, vertexCountQuery, map[string]string{"col": col}, nil)
		if len(rows) == 0 {
			counts[col] = -1
			continue
		}
		total, ok := rows[0]["total"].(int64)
		if !ok {
			counts[col] = -1
			continue
		}
		counts[col] = total
	}
	return counts
}
