package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/appheap/tase/internal/database"
	"github.com/appheap/tase/pkg/logger"
)

// HandlerFunc processes one parsed update.
type HandlerFunc func(ctx context.Context, u *Update) error

// Dispatcher routes parsed updates to registered command handlers. Every
// update first flows through bookkeeping (sender, chat, mentions) before
// its handler runs, so the graph sees users and chats even when a handler
// later fails.
type Dispatcher struct {
	db       *database.Database
	handlers map[Command]HandlerFunc
	fallback HandlerFunc
	log      *zap.Logger
}

// NewDispatcher builds an empty dispatcher over the storage facade.
func NewDispatcher(db *database.Database) *Dispatcher {
	return &Dispatcher{
		db:       db,
		handlers: make(map[Command]HandlerFunc),
		log:      logger.Named("bot"),
	}
}

// Register binds a handler to a command. Last registration wins.
func (d *Dispatcher) Register(cmd Command, h HandlerFunc) {
	d.handlers[cmd] = h
}

// RegisterFallback binds the handler for non-command updates.
func (d *Dispatcher) RegisterFallback(h HandlerFunc) {
	d.fallback = h
}

// Dispatch runs the bookkeeping pass and then the matching handler.
// Updates from bots and updates with no matching handler are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, u *Update) error {
	if u.Sender.IsBot {
		return nil
	}

	d.bookkeep(ctx, u)

	h, ok := d.handlers[u.Command]
	if !ok {
		if u.Command != CommandNone {
			d.log.Debug("unknown command", zap.String("command", string(u.Command)))
			return nil
		}
		if d.fallback == nil {
			return nil
		}
		h = d.fallback
	}

	if err := h(ctx, u); err != nil {
		d.log.Error("handler failed",
			zap.String("command", string(u.Command)),
			zap.Int64("user", u.Sender.TelegramID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// bookkeep upserts the sender and chat and records every mention.
// Failures here are logged and swallowed so the handler still runs.
func (d *Dispatcher) bookkeep(ctx context.Context, u *Update) {
	user, err := d.db.UpdateOrCreateUser(ctx, u.Sender.TelegramID,
		u.Sender.FirstName, u.Sender.LastName, u.Sender.Username,
		u.Sender.LanguageCode, u.Sender.IsBot)
	if err != nil || user == nil {
		d.log.Error("sender upsert failed",
			zap.Int64("user", u.Sender.TelegramID), zap.Error(err))
	}

	chat, err := d.db.GetOrCreateChat(ctx, u.Chat.TelegramID, u.Chat.Type,
		u.Chat.Title, u.Chat.Username, 0)
	if err != nil || chat == nil {
		d.log.Error("chat upsert failed",
			zap.Int64("chat", u.Chat.TelegramID), zap.Error(err))
		return
	}

	for _, m := range u.Mentions {
		if _, err := d.db.RecordMention(ctx, chat, m.Username, u.ReceivedAt, m.Source, m.StartIndex); err != nil {
			d.log.Error("mention record failed",
				zap.String("username", m.Username), zap.Error(err))
		}
	}
}
