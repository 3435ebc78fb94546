package bot

import (
	"strings"

	"github.com/appheap/tase/internal/models"
)

// Command discriminates incoming bot commands.
type Command string

const (
	CommandNone           Command = ""
	CommandStart          Command = "start"
	CommandHelp           Command = "help"
	CommandNewPlaylist    Command = "newplaylist"
	CommandPlaylists      Command = "playlists"
	CommandAddToPlaylist  Command = "add"
	CommandRemoveAudio    Command = "remove"
	CommandDeletePlaylist Command = "deleteplaylist"
	CommandFavorite       Command = "favorite"
	CommandSubscribe      Command = "subscribe"
	CommandSearch         Command = "search"
	CommandDownload       Command = "dl"
)

// Sender carries the already-parsed sender fields of an update.
type Sender struct {
	TelegramID   int64  `json:"telegram_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	IsBot        bool   `json:"is_bot"`
}

// ChatRef carries the already-parsed chat fields of an update.
type ChatRef struct {
	TelegramID int64           `json:"telegram_id"`
	Type       models.ChatType `json:"type"`
	Title      string          `json:"title"`
	Username   string          `json:"username"`
}

// AudioRef carries the audio attachment of an update, if any.
type AudioRef struct {
	MessageID    int64            `json:"message_id"`
	Title        string           `json:"title"`
	Performer    string           `json:"performer"`
	FileName     string           `json:"file_name"`
	MimeType     string           `json:"mime_type"`
	Duration     int64            `json:"duration"`
	FileSize     int64            `json:"file_size"`
	Type         models.AudioType `json:"type"`
	FileUniqueID string           `json:"file_unique_id"`
	FileID       string           `json:"file_id"`
	Date         int64            `json:"date"`
}

// MentionRef is one @username occurrence found in an update.
type MentionRef struct {
	Username   string               `json:"username"`
	Source     models.MentionSource `json:"source"`
	StartIndex int64                `json:"start_index"`
}

// Update is one parsed incoming event. Wire decoding happens in the
// transport sidecar; handlers only ever see these fields.
type Update struct {
	Sender     Sender       `json:"sender"`
	Chat       ChatRef      `json:"chat"`
	Text       string       `json:"text"`
	Command    Command      `json:"command"`
	Args       []string     `json:"args"`
	Audio      *AudioRef    `json:"audio,omitempty"`
	Mentions   []MentionRef `json:"mentions,omitempty"`
	ReceivedAt int64        `json:"received_at"`
}

// ParseCommand splits a message text into a command and its arguments.
// Non-command text yields CommandNone with the raw text untouched.
func ParseCommand(text string) (Command, []string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return CommandNone, nil
	}
	parts := strings.Fields(text[1:])
	if len(parts) == 0 {
		return CommandNone, nil
	}
	// Telegram suffixes commands with @botname in groups.
	name, _, _ := strings.Cut(parts[0], "@")
	return Command(strings.ToLower(name)), parts[1:]
}
