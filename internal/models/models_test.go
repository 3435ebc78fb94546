package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appheap/tase/pkg/errors"
)

func TestVertexKeys(t *testing.T) {
	assert.Equal(t, "123456", UserKey(123456))
	assert.Equal(t, "", UserKey(0))

	assert.Equal(t, "-1001234", ChatKey(-1001234))
	assert.Equal(t, "", ChatKey(0))

	assert.Equal(t, "-1001234:55", AudioKey(-1001234, 55))
	assert.Equal(t, "", AudioKey(0, 55))
	assert.Equal(t, "", AudioKey(-1001234, 0))

	assert.Equal(t, "abc123", FileKey("abc123"))
	assert.Equal(t, "tok-1", HitKey("tok-1"))
}

func TestUsernameKeyNormalizes(t *testing.T) {
	assert.Equal(t, "someone", UsernameKey("@Someone"))
	assert.Equal(t, "someone", UsernameKey("SOMEONE"))
	assert.Equal(t, "someone", UsernameKey("someone"))
	assert.Equal(t, "", UsernameKey("@"))
	assert.Equal(t, "", UsernameKey(""))
}

// persistedUser fakes a stored user for edge construction.
func persistedUser(key string) *User {
	u := &User{TelegramID: 1}
	u.ID = "users/" + key
	u.Key = key
	u.Rev = "r1"
	return u
}

func persistedPlaylist(key string) *Playlist {
	p := &Playlist{OwnerUserID: 1, Title: "t"}
	p.ID = "playlists/" + key
	p.Key = key
	p.Rev = "r1"
	return p
}

func persistedAudio(key string) *Audio {
	a := &Audio{ChatID: -1, MessageID: 1}
	a.ID = "audios/" + key
	a.Key = key
	a.Rev = "r1"
	return a
}

func persistedChat(key string) *Chat {
	c := &Chat{TelegramID: -1}
	c.ID = "chats/" + key
	c.Key = key
	c.Rev = "r1"
	return c
}

func TestEdgeKeysAreDeterministic(t *testing.T) {
	u := persistedUser("42")
	p := persistedPlaylist("abc")

	assert.Equal(t, "42:abc", HasKey(u, p))
	assert.Equal(t, HasKey(u, p), HasKey(u, p))
	assert.NotEqual(t, HasKey(u, p), HasKey(p, u))

	assert.Equal(t, "42:abc:1000", HadKey(u, p, 1000))
	assert.NotEqual(t, HadKey(u, p, 1000), HadKey(u, p, 2000))
	assert.Equal(t, "", HadKey(u, p, 0))

	// Keys are not derivable from transient vertices.
	assert.Equal(t, "", HasKey(&User{}, p))
	assert.Equal(t, "", HasKey(nil, p))
}

func TestMentionsKeyDisambiguates(t *testing.T) {
	c := persistedChat("-100")
	n := &Username{Username: "target"}
	n.ID = "usernames/target"
	n.Key = "target"
	n.Rev = "r1"

	base := MentionsKey(c, n, 1000, MentionSourceMessageText, 5)
	assert.Equal(t, base, MentionsKey(c, n, 1000, MentionSourceMessageText, 5))
	assert.NotEqual(t, base, MentionsKey(c, n, 1001, MentionSourceMessageText, 5))
	assert.NotEqual(t, base, MentionsKey(c, n, 1000, MentionSourceChatDescription, 5))
	assert.NotEqual(t, base, MentionsKey(c, n, 1000, MentionSourceMessageText, 6))
}

func TestNewHas_RejectsWrongEndpoints(t *testing.T) {
	chat := persistedChat("-100")
	audio := persistedAudio("-1:1")

	// chats are not a permitted Has origin.
	_, err := NewHas(chat, audio)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUsage))

	// playlist -> audio is permitted.
	_, err = NewHas(persistedPlaylist("p1"), audio)
	assert.NoError(t, err)
}

func TestNewHas_RequiresPersistedEndpoints(t *testing.T) {
	u := persistedUser("42")
	transient := &Playlist{OwnerUserID: 42, Title: "t"}
	transient.Key = "p1" // key set but no store identity

	_, err := NewHas(u, transient)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUsage))
}

func TestNewHad_CarriesDeletionTime(t *testing.T) {
	u := persistedUser("42")
	p := persistedPlaylist("p1")

	had, err := NewHad(u, p, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), had.DeletedAt)
	assert.Equal(t, "42:p1:1000", had.Key)
	assert.Equal(t, u.ID, had.From)
	assert.Equal(t, p.ID, had.To)

	_, err = NewHad(u, p, 0)
	assert.Error(t, err)
}

func TestNewToAudio_AcceptsHitAndDownloadOrigins(t *testing.T) {
	audio := persistedAudio("-1:1")

	hit := &Hit{DownloadToken: "tok"}
	hit.ID = "hits/tok"
	hit.Key = "tok"
	hit.Rev = "r1"

	dl := &Download{AudioKey: "-1:1"}
	dl.ID = "downloads/d1"
	dl.Key = "d1"
	dl.Rev = "r1"

	_, err := NewToAudio(hit, audio)
	assert.NoError(t, err)
	_, err = NewToAudio(dl, audio)
	assert.NoError(t, err)
	_, err = NewToAudio(persistedUser("42"), audio)
	assert.Error(t, err)
}

func TestRegistryCoversAllSpecs(t *testing.T) {
	vertices := VertexCollections()
	assert.Contains(t, vertices, "users")
	assert.Contains(t, vertices, "audios")
	assert.Contains(t, vertices, "usernames")
	assert.Len(t, vertices, 8)

	edges := EdgeCollections()
	assert.Contains(t, edges, "has")
	assert.Contains(t, edges, "had")
	assert.Contains(t, edges, "mentions")
	assert.Len(t, edges, 10)
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(42, "Ada", "L", "ada", "en", false)
	require.NoError(t, err)
	assert.Equal(t, "42", u.Key)
	assert.Equal(t, "en", u.ChosenLanguageCode)
	assert.False(t, u.Persisted())

	_, err = NewUser(0, "Ada", "L", "ada", "en", false)
	assert.Error(t, err)
}

func TestNewAudio_RequiresMessageCoordinates(t *testing.T) {
	a, err := NewAudio(-100, 7, AudioTypeAudio, "t", "p", "f.mp3", "audio/mpeg", 60, 1024, 999)
	require.NoError(t, err)
	assert.Equal(t, "-100:7", a.Key)

	_, err = NewAudio(0, 7, AudioTypeAudio, "", "", "", "", 0, 0, 0)
	assert.Error(t, err)
}
