package database

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/logger"
)

// Database is the storage facade: one typed client per entity family,
// composed explicitly. Higher-level operations live in the *_operations.go
// files of this package and only ever go through these clients and the
// shared executor.
type Database struct {
	exec *graph.Executor
	log  *zap.Logger

	Users     *graph.Collection[*models.User]
	Chats     *graph.Collection[*models.Chat]
	Audios    *graph.Collection[*models.Audio]
	Files     *graph.Collection[*models.File]
	Playlists *graph.Collection[*models.Playlist]
	Downloads *graph.Collection[*models.Download]
	Hits      *graph.Collection[*models.Hit]
	Usernames *graph.Collection[*models.Username]

	Has          *graph.Edges[*models.Has]
	Had          *graph.Edges[*models.Had]
	Downloaded   *graph.Edges[*models.Downloaded]
	FromHit      *graph.Edges[*models.FromHit]
	ToAudio      *graph.Edges[*models.ToAudio]
	FileRef      *graph.Edges[*models.FileRef]
	LinkedChat   *graph.Edges[*models.LinkedChat]
	SentBy       *graph.Edges[*models.SentBy]
	SubscribedTo *graph.Edges[*models.SubscribedTo]
	Mentions     *graph.Edges[*models.Mentions]
}

// New wires the facade over an open driver.
func New(driver neo4j.DriverWithContext) *Database {
	exec := graph.NewExecutor(driver)
	return &Database{
		exec: exec,
		log:  logger.Named("database"),

		Users:     graph.NewCollection(exec, models.UserSpec, func() *models.User { return &models.User{} }),
		Chats:     graph.NewCollection(exec, models.ChatSpec, func() *models.Chat { return &models.Chat{} }),
		Audios:    graph.NewCollection(exec, models.AudioSpec, func() *models.Audio { return &models.Audio{} }),
		Files:     graph.NewCollection(exec, models.FileSpec, func() *models.File { return &models.File{} }),
		Playlists: graph.NewCollection(exec, models.PlaylistSpec, func() *models.Playlist { return &models.Playlist{} }),
		Downloads: graph.NewCollection(exec, models.DownloadSpec, func() *models.Download { return &models.Download{} }),
		Hits:      graph.NewCollection(exec, models.HitSpec, func() *models.Hit { return &models.Hit{} }),
		Usernames: graph.NewCollection(exec, models.UsernameSpec, func() *models.Username { return &models.Username{} }),

		Has:          graph.NewEdges(exec, models.HasSpec, func() *models.Has { return &models.Has{} }),
		Had:          graph.NewEdges(exec, models.HadSpec, func() *models.Had { return &models.Had{} }),
		Downloaded:   graph.NewEdges(exec, models.DownloadedSpec, func() *models.Downloaded { return &models.Downloaded{} }),
		FromHit:      graph.NewEdges(exec, models.FromHitSpec, func() *models.FromHit { return &models.FromHit{} }),
		ToAudio:      graph.NewEdges(exec, models.ToAudioSpec, func() *models.ToAudio { return &models.ToAudio{} }),
		FileRef:      graph.NewEdges(exec, models.FileRefSpec, func() *models.FileRef { return &models.FileRef{} }),
		LinkedChat:   graph.NewEdges(exec, models.LinkedChatSpec, func() *models.LinkedChat { return &models.LinkedChat{} }),
		SentBy:       graph.NewEdges(exec, models.SentBySpec, func() *models.SentBy { return &models.SentBy{} }),
		SubscribedTo: graph.NewEdges(exec, models.SubscribedToSpec, func() *models.SubscribedTo { return &models.SubscribedTo{} }),
		Mentions:     graph.NewEdges(exec, models.MentionsSpec, func() *models.Mentions { return &models.Mentions{} }),
	}
}

// Executor exposes the shared query executor for traversal operations.
func (db *Database) Executor() *graph.Executor { return db.exec }

// EnsureSchema creates constraints and indexes for every registered
// collection.
func (db *Database) EnsureSchema(ctx context.Context) error {
	return graph.EnsureSchema(ctx, db.exec.Driver(), models.VertexCollections(), models.EdgeCollections())
}

// Close closes the underlying driver.
func (db *Database) Close(ctx context.Context) error {
	return db.exec.Close(ctx)
}
