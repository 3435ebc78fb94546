package models

// ChatType is the kind of Telegram chat a Chat vertex describes.
type ChatType int

const (
	ChatTypeUnknown ChatType = iota
	ChatTypePrivate
	ChatTypeBot
	ChatTypeGroup
	ChatTypeSupergroup
	ChatTypeChannel
)

// Primitive flattens the enum for storage.
func (t ChatType) Primitive() any { return int64(t) }

func (t ChatType) String() string {
	switch t {
	case ChatTypePrivate:
		return "private"
	case ChatTypeBot:
		return "bot"
	case ChatTypeGroup:
		return "group"
	case ChatTypeSupergroup:
		return "supergroup"
	case ChatTypeChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// AudioType is the Telegram attachment kind an Audio vertex was parsed
// from.
type AudioType int

const (
	AudioTypeUnknown AudioType = iota
	AudioTypeAudio
	AudioTypeVoice
	AudioTypeDocument
)

// Primitive flattens the enum for storage.
func (t AudioType) Primitive() any { return int64(t) }

func (t AudioType) String() string {
	switch t {
	case AudioTypeAudio:
		return "audio"
	case AudioTypeVoice:
		return "voice"
	case AudioTypeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// MentionSource tells where a username mention was seen; it participates
// in the Mentions edge key, so its numeric values are part of the stored
// contract and must not be reordered.
type MentionSource int

const (
	MentionSourceUnknown MentionSource = iota
	MentionSourceMessageText
	MentionSourceChatDescription
	MentionSourceForwardedChat
	MentionSourceLinkedChat
)

// Primitive flattens the enum for storage.
func (s MentionSource) Primitive() any { return int64(s) }
