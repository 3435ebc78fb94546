package models

import (
	"strings"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// UsernameSpec binds Username to its collection.
var UsernameSpec = graph.TypeSpec{
	Collection:    "usernames",
	SchemaVersion: 1,
	SoftDeletable: true,
}

// Username is a mentioned @username queued for crawling. It exists before
// anyone knows whether it resolves to a chat; the checker job fills in the
// verdict later.
type Username struct {
	graph.Meta
	graph.SoftDeleteMeta

	Username  string `validate:"required"`
	IsChecked bool
	CheckedAt int64
	IsValid   bool
}

// Collection returns the bound collection name.
func (*Username) Collection() string { return UsernameSpec.Collection }

// UsernameKey derives the collection key: usernames are case-insensitive
// on Telegram, so the key is the lowercased form.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimPrefix(username, "@"))
}

// NewUsername builds a transient Username.
func NewUsername(username string) (*Username, error) {
	key := UsernameKey(username)
	if key == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "username must not be empty", nil)
	}
	u := &Username{Username: key}
	u.Key = key
	return u, nil
}

func (u *Username) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "username", Value: u.Username},
		{Name: "is_checked", Value: u.IsChecked},
		{Name: "checked_at", Value: u.CheckedAt},
		{Name: "is_valid", Value: u.IsValid},
	}, nil
}

func (u *Username) DecodeAttrs(fs graph.Fields) error {
	u.Username = fs.GetString("username")
	u.IsChecked = fs.GetBool("is_checked")
	u.CheckedAt = fs.GetInt64("checked_at")
	u.IsValid = fs.GetBool("is_valid")
	return nil
}
