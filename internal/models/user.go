package models

import (
	"strconv"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// UserSpec binds User to its collection.
var UserSpec = graph.TypeSpec{
	Collection:    "users",
	SchemaVersion: 1,
	SoftDeletable: true,
}

// User is a Telegram user or bot seen by the system.
type User struct {
	graph.Meta
	graph.SoftDeleteMeta

	TelegramID         int64 `validate:"required"`
	FirstName          string
	LastName           string
	Username           string
	IsBot              bool
	ChosenLanguageCode string
}

// Collection returns the bound collection name.
func (*User) Collection() string { return UserSpec.Collection }

// UserKey derives the collection key from the Telegram user id.
func UserKey(telegramID int64) string {
	if telegramID == 0 {
		return ""
	}
	return strconv.FormatInt(telegramID, 10)
}

// NewUser builds a transient User from already-parsed Telegram fields.
func NewUser(telegramID int64, firstName, lastName, username, languageCode string, isBot bool) (*User, error) {
	key := UserKey(telegramID)
	if key == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "user requires a telegram id", nil)
	}
	u := &User{
		TelegramID:         telegramID,
		FirstName:          firstName,
		LastName:           lastName,
		Username:           username,
		IsBot:              isBot,
		ChosenLanguageCode: languageCode,
	}
	u.Key = key
	return u, nil
}

func (u *User) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "telegram_id", Value: u.TelegramID},
		{Name: "first_name", Value: u.FirstName},
		{Name: "last_name", Value: u.LastName},
		{Name: "username", Value: u.Username},
		{Name: "is_bot", Value: u.IsBot},
		{Name: "chosen_language_code", Value: u.ChosenLanguageCode},
	}, nil
}

func (u *User) DecodeAttrs(fs graph.Fields) error {
	u.TelegramID = fs.GetInt64("telegram_id")
	u.FirstName = fs.GetString("first_name")
	u.LastName = fs.GetString("last_name")
	u.Username = fs.GetString("username")
	u.IsBot = fs.GetBool("is_bot")
	u.ChosenLanguageCode = fs.GetString("chosen_language_code")
	return nil
}
