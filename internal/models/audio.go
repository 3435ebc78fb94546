package models

import (
	"fmt"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// AudioSpec binds Audio to its collection.
var AudioSpec = graph.TypeSpec{
	Collection:    "audios",
	SchemaVersion: 1,
	SoftDeletable: true,
}

// Thumb is the thumbnail value object nested inside an Audio document.
type Thumb struct {
	FileUniqueID string
	Width        int64
	Height       int64
}

// DocumentFields flattens the thumbnail into a sub-document.
func (t *Thumb) DocumentFields() (graph.Fields, error) {
	return graph.Fields{
		{Name: "file_unique_id", Value: t.FileUniqueID},
		{Name: "width", Value: t.Width},
		{Name: "height", Value: t.Height},
	}, nil
}

func thumbFromFields(fs graph.Fields) *Thumb {
	sub := fs.WithPrefix("thumb_")
	if len(sub) == 0 {
		return nil
	}
	return &Thumb{
		FileUniqueID: sub.GetString("file_unique_id"),
		Width:        sub.GetInt64("width"),
		Height:       sub.GetInt64("height"),
	}
}

// Audio is one audio attachment found in an indexed chat message.
type Audio struct {
	graph.Meta
	graph.SoftDeleteMeta

	ChatID    int64 `validate:"required"`
	MessageID int64 `validate:"required"`
	Title     string
	Performer string
	FileName  string
	MimeType  string
	Duration  int64
	FileSize  int64
	Type      AudioType
	Thumb     *Thumb
	Date      int64
}

// Collection returns the bound collection name.
func (*Audio) Collection() string { return AudioSpec.Collection }

// AudioKey derives the collection key from the message's address.
func AudioKey(chatID, messageID int64) string {
	if chatID == 0 || messageID == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", chatID, messageID)
}

// NewAudio builds a transient Audio from already-parsed message fields.
func NewAudio(chatID, messageID int64, audioType AudioType, title, performer, fileName, mimeType string, duration, fileSize, date int64) (*Audio, error) {
	key := AudioKey(chatID, messageID)
	if key == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "audio requires a chat id and message id", nil)
	}
	a := &Audio{
		ChatID:    chatID,
		MessageID: messageID,
		Type:      audioType,
		Title:     title,
		Performer: performer,
		FileName:  fileName,
		MimeType:  mimeType,
		Duration:  duration,
		FileSize:  fileSize,
		Date:      date,
	}
	a.Key = key
	return a, nil
}

func (a *Audio) EncodeAttrs() (graph.Fields, error) {
	fs := graph.Fields{
		{Name: "chat_id", Value: a.ChatID},
		{Name: "message_id", Value: a.MessageID},
		{Name: "title", Value: a.Title},
		{Name: "performer", Value: a.Performer},
		{Name: "file_name", Value: a.FileName},
		{Name: "mime_type", Value: a.MimeType},
		{Name: "duration", Value: a.Duration},
		{Name: "file_size", Value: a.FileSize},
		{Name: "audio_type", Value: a.Type},
		{Name: "date", Value: a.Date},
	}
	if a.Thumb != nil {
		fs = append(fs, graph.Field{Name: "thumb", Value: a.Thumb})
	}
	return fs, nil
}

func (a *Audio) DecodeAttrs(fs graph.Fields) error {
	a.ChatID = fs.GetInt64("chat_id")
	a.MessageID = fs.GetInt64("message_id")
	a.Title = fs.GetString("title")
	a.Performer = fs.GetString("performer")
	a.FileName = fs.GetString("file_name")
	a.MimeType = fs.GetString("mime_type")
	a.Duration = fs.GetInt64("duration")
	a.FileSize = fs.GetInt64("file_size")
	a.Type = AudioType(fs.GetInt64("audio_type"))
	a.Thumb = thumbFromFields(fs)
	a.Date = fs.GetInt64("date")
	return nil
}
