package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appheap/tase/internal/database"
	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/errors"
	"github.com/appheap/tase/pkg/logger"
)

const searchPageSize = 10

// Handler holds the command handlers. Responses go through the Replier so
// the handlers stay transport-free.
type Handler struct {
	db    *database.Database
	reply Replier
	log   *zap.Logger
}

// Replier delivers a plain-text response back to a chat.
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// NopReplier discards responses. Used by the indexer deployment, which
// consumes channel updates without talking back.
type NopReplier struct{}

func (NopReplier) Reply(context.Context, int64, string) error { return nil }

// NewHandler builds the handler set over the storage facade.
func NewHandler(db *database.Database, reply Replier) *Handler {
	if reply == nil {
		reply = NopReplier{}
	}
	return &Handler{db: db, reply: reply, log: logger.Named("bot.handlers")}
}

// RegisterAll wires every command onto the dispatcher.
func (h *Handler) RegisterAll(d *Dispatcher) {
	d.Register(CommandStart, h.Start)
	d.Register(CommandHelp, h.Help)
	d.Register(CommandNewPlaylist, h.NewPlaylist)
	d.Register(CommandPlaylists, h.Playlists)
	d.Register(CommandAddToPlaylist, h.AddToPlaylist)
	d.Register(CommandRemoveAudio, h.RemoveAudio)
	d.Register(CommandDeletePlaylist, h.DeletePlaylist)
	d.Register(CommandFavorite, h.Favorite)
	d.Register(CommandSubscribe, h.Subscribe)
	d.Register(CommandSearch, h.Search)
	d.Register(CommandDownload, h.Download)
	d.RegisterFallback(h.Message)
}

// Start greets the user. The bookkeeping pass has already stored them.
func (h *Handler) Start(ctx context.Context, u *Update) error {
	return h.reply.Reply(ctx, u.Chat.TelegramID,
		"Send me an audio file to index it, or /help for commands.")
}

// Help lists the available commands.
func (h *Handler) Help(ctx context.Context, u *Update) error {
	return h.reply.Reply(ctx, u.Chat.TelegramID, strings.Join([]string{
		"/newplaylist <title> - create a playlist",
		"/playlists - list your playlists",
		"/add <playlist> - add the replied audio to a playlist",
		"/remove <playlist> - remove the replied audio from a playlist",
		"/deleteplaylist <playlist> - delete a playlist",
		"/favorite <playlist> - toggle favorite",
		"/subscribe <playlist> - toggle subscription to a public playlist",
		"/dl <token> - download by token",
	}, "\n"))
}

// Message is the fallback for non-command updates: index any audio
// attachment the message carries.
func (h *Handler) Message(ctx context.Context, u *Update) error {
	if u.Audio == nil {
		return nil
	}
	return h.indexAudio(ctx, u)
}

func (h *Handler) indexAudio(ctx context.Context, u *Update) error {
	chat, err := h.db.Chats.Get(ctx, models.ChatKey(u.Chat.TelegramID))
	if err != nil {
		return err
	}

	a, err := models.NewAudio(u.Chat.TelegramID, u.Audio.MessageID,
		u.Audio.Type, u.Audio.Title, u.Audio.Performer, u.Audio.FileName,
		u.Audio.MimeType, u.Audio.Duration, u.Audio.FileSize, u.Audio.Date)
	if err != nil {
		return err
	}

	var file *models.File
	if u.Audio.FileUniqueID != "" {
		file, err = models.NewFile(u.Audio.FileUniqueID, u.Audio.FileID, u.Audio.FileSize)
		if err != nil {
			return err
		}
	}

	stored, err := h.db.GetOrCreateAudio(ctx, a, chat, file)
	if err != nil {
		return err
	}
	if stored == nil {
		h.log.Warn("audio not stored",
			zap.Int64("chat", u.Chat.TelegramID),
			zap.Int64("message", u.Audio.MessageID))
	}
	return nil
}

// NewPlaylist creates a playlist titled by the command arguments.
func (h *Handler) NewPlaylist(ctx context.Context, u *Update) error {
	title := strings.TrimSpace(strings.Join(u.Args, " "))
	if title == "" {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Usage: /newplaylist <title>")
	}

	user, err := h.db.Users.Get(ctx, models.UserKey(u.Sender.TelegramID))
	if err != nil || user == nil {
		return errors.NewQueryFailed("sender lookup", err)
	}

	p, err := h.db.CreatePlaylist(ctx, user, title, "")
	if err != nil {
		return err
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Created playlist "+p.Key)
}

// Playlists lists the caller's playlists.
func (h *Handler) Playlists(ctx context.Context, u *Update) error {
	user, err := h.db.Users.Get(ctx, models.UserKey(u.Sender.TelegramID))
	if err != nil || user == nil {
		return errors.NewQueryFailed("sender lookup", err)
	}

	playlists := h.db.GetUserPlaylists(ctx, user, 0, 50)
	if len(playlists) == 0 {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "You have no playlists yet.")
	}

	lines := make([]string, 0, len(playlists))
	for _, p := range playlists {
		line := p.Key + "  " + p.Title
		if p.IsFavorite {
			line += "  *"
		}
		lines = append(lines, line)
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, strings.Join(lines, "\n"))
}

// AddToPlaylist adds the update's audio attachment to a playlist.
func (h *Handler) AddToPlaylist(ctx context.Context, u *Update) error {
	user, playlistKey, err := h.playlistArgs(ctx, u)
	if err != nil || user == nil {
		return err
	}
	if u.Audio == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Reply to an audio message with /add <playlist>.")
	}

	audio, err := h.db.Audios.Get(ctx, models.AudioKey(u.Chat.TelegramID, u.Audio.MessageID))
	if err != nil {
		return err
	}
	if audio == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "That audio is not indexed yet.")
	}

	has, err := h.db.AddAudioToPlaylist(ctx, user, playlistKey, audio)
	if err != nil {
		return err
	}
	if has == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Playlist not found.")
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Added.")
}

// RemoveAudio removes the update's audio attachment from a playlist.
func (h *Handler) RemoveAudio(ctx context.Context, u *Update) error {
	user, playlistKey, err := h.playlistArgs(ctx, u)
	if err != nil || user == nil {
		return err
	}
	if u.Audio == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Reply to an audio message with /remove <playlist>.")
	}

	audio, err := h.db.Audios.Get(ctx, models.AudioKey(u.Chat.TelegramID, u.Audio.MessageID))
	if err != nil {
		return err
	}
	if audio == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "That audio is not indexed.")
	}

	if err := h.db.RemoveAudioFromPlaylist(ctx, user, playlistKey, audio, u.ReceivedAt); err != nil {
		return err
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Removed.")
}

// DeletePlaylist soft-deletes a playlist, keeping its history.
func (h *Handler) DeletePlaylist(ctx context.Context, u *Update) error {
	user, playlistKey, err := h.playlistArgs(ctx, u)
	if err != nil || user == nil {
		return err
	}
	if err := h.db.RemovePlaylist(ctx, user, playlistKey, u.ReceivedAt); err != nil {
		return err
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Playlist deleted.")
}

// Favorite toggles the favorite flag of a playlist.
func (h *Handler) Favorite(ctx context.Context, u *Update) error {
	user, playlistKey, err := h.playlistArgs(ctx, u)
	if err != nil || user == nil {
		return err
	}
	p, err := h.db.ToggleFavorite(ctx, user, playlistKey)
	if err != nil {
		return err
	}
	if p == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Playlist not found.")
	}
	if p.IsFavorite {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Marked favorite.")
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Unmarked favorite.")
}

// Subscribe toggles a subscription to someone else's public playlist.
func (h *Handler) Subscribe(ctx context.Context, u *Update) error {
	if len(u.Args) == 0 {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Usage: /subscribe <playlist>")
	}
	user, err := h.db.Users.Get(ctx, models.UserKey(u.Sender.TelegramID))
	if err != nil || user == nil {
		return errors.NewQueryFailed("sender lookup", err)
	}

	playlist, err := h.db.Playlists.Get(ctx, u.Args[0])
	if err != nil {
		return err
	}
	if playlist == nil || !playlist.IsPublic {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "No such public playlist.")
	}

	sub, err := h.db.ToggleSubscription(ctx, user, playlist)
	if err != nil {
		return err
	}
	if sub != nil && sub.IsActive {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Subscribed to "+playlist.Title+".")
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "Unsubscribed from "+playlist.Title+".")
}

// Search matches indexed audios by exact title and hands out download
// tokens. Every surfaced result is recorded as a hit.
func (h *Handler) Search(ctx context.Context, u *Update) error {
	query := strings.TrimSpace(strings.Join(u.Args, " "))
	if query == "" {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Usage: /search <title>")
	}

	cursor, err := h.db.Audios.Find(ctx,
		map[string]any{"title": query},
		graph.FilterOutSoftDeleted(), graph.WithLimit(searchPageSize))
	if err != nil {
		return err
	}
	results := cursor.Collect()
	if len(results) == 0 {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Nothing found.")
	}

	lines := make([]string, 0, len(results))
	for i, a := range results {
		token := uuid.NewString()
		if _, err := h.db.RegisterHit(ctx, token, query, int64(i+1), 0, a); err != nil {
			h.log.Error("hit registration failed", zap.Error(err))
			continue
		}
		line := a.Title
		if a.Performer != "" {
			line += " - " + a.Performer
		}
		lines = append(lines, line+"\n/dl "+token)
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, strings.Join(lines, "\n\n"))
}

// Download records a download referenced by a hit token.
func (h *Handler) Download(ctx context.Context, u *Update) error {
	if len(u.Args) == 0 {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Usage: /dl <token>")
	}
	token := u.Args[0]

	user, err := h.db.Users.Get(ctx, models.UserKey(u.Sender.TelegramID))
	if err != nil || user == nil {
		return errors.NewQueryFailed("sender lookup", err)
	}

	hit, err := h.db.Hits.Get(ctx, models.HitKey(token))
	if err != nil {
		return err
	}
	if hit == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "Unknown download token.")
	}

	audio, err := h.db.HitAudio(ctx, hit)
	if err != nil {
		return err
	}
	if audio == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "This result is gone.")
	}

	if _, err := h.db.RegisterDownload(ctx, user, audio, token); err != nil {
		return err
	}

	file := h.db.GetAudioFile(ctx, audio)
	if file == nil {
		return h.reply.Reply(ctx, u.Chat.TelegramID, "File is not cached yet, try again later.")
	}
	return h.reply.Reply(ctx, u.Chat.TelegramID, "file:"+file.FileID)
}

// playlistArgs resolves the calling user and the playlist key argument
// common to the playlist commands.
func (h *Handler) playlistArgs(ctx context.Context, u *Update) (*models.User, string, error) {
	if len(u.Args) == 0 {
		return nil, "", h.reply.Reply(ctx, u.Chat.TelegramID, "A playlist key is required.")
	}
	user, err := h.db.Users.Get(ctx, models.UserKey(u.Sender.TelegramID))
	if err != nil || user == nil {
		return nil, "", errors.NewQueryFailed("sender lookup", err)
	}
	return user, u.Args[0], nil
}
