package database

import (
	"context"

	"github.com/appheap/tase/internal/models"
)

// GetOrCreateChat returns the stored chat for the Telegram id, inserting
// a fresh vertex on first sight.
func (db *Database) GetOrCreateChat(ctx context.Context, telegramID int64, chatType models.ChatType, title, username string, memberCount int64) (*models.Chat, error) {
	existing, err := db.Chats.Get(ctx, models.ChatKey(telegramID))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c, err := models.NewChat(telegramID, chatType, title, username, memberCount)
	if err != nil {
		return nil, err
	}
	if _, ok := db.Chats.Insert(ctx, c); ok {
		return c, nil
	}
	return db.Chats.Get(ctx, models.ChatKey(telegramID))
}

// LinkChats records the channel/discussion-group pairing with one edge
// per direction so traversal works from either side.
func (db *Database) LinkChats(ctx context.Context, a, b *models.Chat) error {
	forward, err := models.NewLinkedChat(a, b)
	if err != nil {
		return err
	}
	if _, err := db.LinkedChat.GetOrCreate(ctx, forward); err != nil {
		return err
	}

	backward, err := models.NewLinkedChat(b, a)
	if err != nil {
		return err
	}
	_, err = db.LinkedChat.GetOrCreate(ctx, backward)
	return err
}

// RecordMention stores a @username sighting: the username vertex is
// created on first sight and an audit edge ties it to the mentioning
// chat.
func (db *Database) RecordMention(ctx context.Context, chat *models.Chat, username string, mentionedAt int64, source models.MentionSource, startIndex int64) (*models.Username, error) {
	existing, err := db.Usernames.Get(ctx, models.UsernameKey(username))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		u, uerr := models.NewUsername(username)
		if uerr != nil {
			return nil, uerr
		}
		if _, ok := db.Usernames.Insert(ctx, u); ok {
			existing = u
		} else if existing, err = db.Usernames.Get(ctx, u.Key); err != nil || existing == nil {
			return nil, err
		}
	}

	mention, err := models.NewMentions(chat, existing, mentionedAt, source, startIndex)
	if err != nil {
		return nil, err
	}
	if _, err := db.Mentions.GetOrCreate(ctx, mention); err != nil {
		return nil, err
	}
	return existing, nil
}
