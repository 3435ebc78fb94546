package models

import (
	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// PlaylistSpec binds Playlist to its collection. IsFavorite marks the one
// auto-created favorites playlist of a user; it must never be flipped by a
// rename or description edit, so the field is update-proof.
var PlaylistSpec = graph.TypeSpec{
	Collection:    "playlists",
	SchemaVersion: 1,
	SoftDeletable: true,
	NonUpdatable:  []string{"is_favorite"},
}

// Playlist is a user-owned collection of audios. Keys are process-wide
// random tokens generated by the playlist operations, not derived from
// the owner.
type Playlist struct {
	graph.Meta
	graph.SoftDeleteMeta

	OwnerUserID int64  `validate:"required"`
	Title       string `validate:"required"`
	Description string
	IsFavorite  bool
	IsPublic    bool
}

// Collection returns the bound collection name.
func (*Playlist) Collection() string { return PlaylistSpec.Collection }

// NewPlaylist builds a transient Playlist with the given pre-generated
// key.
func NewPlaylist(key string, owner *User, title, description string) (*Playlist, error) {
	if key == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "playlist requires a key", nil)
	}
	if owner == nil || owner.TelegramID == 0 {
		return nil, errors.New(errors.ErrorTypeUsage, "playlist requires an owner", nil)
	}
	if title == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "playlist requires a title", nil)
	}
	p := &Playlist{
		OwnerUserID: owner.TelegramID,
		Title:       title,
		Description: description,
	}
	p.Key = key
	return p, nil
}

func (p *Playlist) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "owner_user_id", Value: p.OwnerUserID},
		{Name: "title", Value: p.Title},
		{Name: "description", Value: p.Description},
		{Name: "is_favorite", Value: p.IsFavorite},
		{Name: "is_public", Value: p.IsPublic},
	}, nil
}

func (p *Playlist) DecodeAttrs(fs graph.Fields) error {
	p.OwnerUserID = fs.GetInt64("owner_user_id")
	p.Title = fs.GetString("title")
	p.Description = fs.GetString("description")
	p.IsFavorite = fs.GetBool("is_favorite")
	p.IsPublic = fs.GetBool("is_public")
	return nil
}
