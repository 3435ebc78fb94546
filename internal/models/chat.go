package models

import (
	"strconv"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// ChatSpec binds Chat to its collection. ForwardedCheckAt records when the
// chat was last crawled through forwarded messages; a stale value must not
// be reintroduced by an unrelated update, so the field is update-proof.
var ChatSpec = graph.TypeSpec{
	Collection:    "chats",
	SchemaVersion: 1,
	SoftDeletable: true,
	NonUpdatable:  []string{"forwarded_check_at"},
}

// Chat is a Telegram chat (channel, group, private chat) indexed by the
// system.
type Chat struct {
	graph.Meta
	graph.SoftDeleteMeta

	TelegramID       int64 `validate:"required"`
	Type             ChatType
	Title            string
	Username         string
	MemberCount      int64
	ForwardedCheckAt int64
}

// Collection returns the bound collection name.
func (*Chat) Collection() string { return ChatSpec.Collection }

// ChatKey derives the collection key from the Telegram chat id.
func ChatKey(telegramID int64) string {
	if telegramID == 0 {
		return ""
	}
	return strconv.FormatInt(telegramID, 10)
}

// NewChat builds a transient Chat from already-parsed Telegram fields.
func NewChat(telegramID int64, chatType ChatType, title, username string, memberCount int64) (*Chat, error) {
	key := ChatKey(telegramID)
	if key == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "chat requires a telegram id", nil)
	}
	c := &Chat{
		TelegramID:  telegramID,
		Type:        chatType,
		Title:       title,
		Username:    username,
		MemberCount: memberCount,
	}
	c.Key = key
	return c, nil
}

func (c *Chat) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "telegram_id", Value: c.TelegramID},
		{Name: "chat_type", Value: c.Type},
		{Name: "title", Value: c.Title},
		{Name: "username", Value: c.Username},
		{Name: "member_count", Value: c.MemberCount},
		{Name: "forwarded_check_at", Value: c.ForwardedCheckAt},
	}, nil
}

func (c *Chat) DecodeAttrs(fs graph.Fields) error {
	c.TelegramID = fs.GetInt64("telegram_id")
	c.Type = ChatType(fs.GetInt64("chat_type"))
	c.Title = fs.GetString("title")
	c.Username = fs.GetString("username")
	c.MemberCount = fs.GetInt64("member_count")
	c.ForwardedCheckAt = fs.GetInt64("forwarded_check_at")
	return nil
}
