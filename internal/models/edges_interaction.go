package models

import (
	"fmt"

	"github.com/appheap/tase/internal/graph"
)

// SubscribedTo

// SubscribedToSpec binds the toggleable user-to-playlist interaction
// edge. Unsubscribing flips IsActive in place instead of deleting, so
// subscription history survives toggling.
var SubscribedToSpec = graph.TypeSpec{
	Collection:    "subscribed_to",
	SchemaVersion: 1,
	FromKinds:     []string{"users"},
	ToKinds:       []string{"playlists"},
}

// SubscribedTo records a user's subscription to a public playlist.
type SubscribedTo struct {
	graph.EdgeMeta

	IsActive  bool
	ToggledAt int64
}

// SubscribedToKey derives the SubscribedTo edge key.
func SubscribedToKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewSubscribedTo builds a transient SubscribedTo edge.
func NewSubscribedTo(user *User, playlist *Playlist, active bool, toggledAt int64) (*SubscribedTo, error) {
	em, err := buildEdgeMeta(SubscribedToSpec, user, playlist, SubscribedToKey(user, playlist))
	if err != nil {
		return nil, err
	}
	return &SubscribedTo{EdgeMeta: em, IsActive: active, ToggledAt: toggledAt}, nil
}

func (s *SubscribedTo) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "is_active", Value: s.IsActive},
		{Name: "toggled_at", Value: s.ToggledAt},
	}, nil
}

func (s *SubscribedTo) DecodeAttrs(fs graph.Fields) error {
	s.IsActive = fs.GetBool("is_active")
	s.ToggledAt = fs.GetInt64("toggled_at")
	return nil
}

// Mentions

// MentionsSpec binds the chat-to-username audit edge. The same username
// can be mentioned by the same chat many times, so the key folds in the
// mention timestamp, source and start index.
var MentionsSpec = graph.TypeSpec{
	Collection:    "mentions",
	SchemaVersion: 1,
	FromKinds:     []string{"chats"},
	ToKinds:       []string{"usernames"},
}

// Mentions records one sighting of a username inside a chat.
type Mentions struct {
	graph.EdgeMeta

	MentionedAt int64 `validate:"required"`
	Source      MentionSource
	StartIndex  int64
}

// MentionsKey derives the Mentions edge key: the pair plus the
// disambiguators in fixed order.
func MentionsKey(from, to graph.Vertex, mentionedAt int64, source MentionSource, startIndex int64) string {
	pair := pairKey(from, to)
	if pair == "" || mentionedAt == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d:%d", pair, mentionedAt, source, startIndex)
}

// NewMentions builds a transient Mentions edge.
func NewMentions(chat *Chat, username *Username, mentionedAt int64, source MentionSource, startIndex int64) (*Mentions, error) {
	em, err := buildEdgeMeta(MentionsSpec, chat, username, MentionsKey(chat, username, mentionedAt, source, startIndex))
	if err != nil {
		return nil, err
	}
	return &Mentions{
		EdgeMeta:    em,
		MentionedAt: mentionedAt,
		Source:      source,
		StartIndex:  startIndex,
	}, nil
}

func (m *Mentions) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "mentioned_at", Value: m.MentionedAt},
		{Name: "mention_source", Value: m.Source},
		{Name: "start_index", Value: m.StartIndex},
	}, nil
}

func (m *Mentions) DecodeAttrs(fs graph.Fields) error {
	m.MentionedAt = fs.GetInt64("mentioned_at")
	m.Source = MentionSource(fs.GetInt64("mention_source"))
	m.StartIndex = fs.GetInt64("start_index")
	return nil
}
