package models

import (
	"fmt"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// pairKey is the default edge key scheme: at most one edge of a type per
// ordered endpoint pair. An empty result means the edge cannot be
// addressed and must never be used as a key.
func pairKey(from, to graph.Vertex) string {
	if from == nil || to == nil {
		return ""
	}
	fk, tk := from.DocMeta().Key, to.DocMeta().Key
	if fk == "" || tk == "" {
		return ""
	}
	return fk + ":" + tk
}

// buildEdgeMeta runs endpoint validation before anything else, then
// requires store identity on both vertices and a derivable key.
func buildEdgeMeta(spec graph.TypeSpec, from, to graph.Vertex, key string) (graph.EdgeMeta, error) {
	if err := graph.ValidateEndpoints(spec, from, to); err != nil {
		return graph.EdgeMeta{}, err
	}
	if !from.DocMeta().Persisted() || !to.DocMeta().Persisted() {
		return graph.EdgeMeta{}, errors.NewMissingIdentity(spec.Collection)
	}
	if key == "" {
		return graph.EdgeMeta{}, errors.New(errors.ErrorTypeUsage, "edge key not derivable for "+spec.Collection, nil)
	}
	em := graph.EdgeMeta{From: from.DocMeta().ID, To: to.DocMeta().ID}
	em.Key = key
	return em, nil
}

// noAttrs is embedded by payload-free edge types.
type noAttrs struct{}

func (noAttrs) EncodeAttrs() (graph.Fields, error) { return nil, nil }
func (noAttrs) DecodeAttrs(graph.Fields) error     { return nil }

// Has

// HasSpec binds the ownership/membership edge: a user has a playlist, a
// playlist has an audio.
var HasSpec = graph.TypeSpec{
	Collection:    "has",
	SchemaVersion: 1,
	FromKinds:     []string{"users", "playlists"},
	ToKinds:       []string{"playlists", "audios"},
}

// Has is the current ownership/membership link.
type Has struct {
	graph.EdgeMeta
	noAttrs
}

// HasKey derives the Has edge key for an ordered endpoint pair.
func HasKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewHas builds a transient Has edge between two persisted vertices.
func NewHas(from, to graph.Vertex) (*Has, error) {
	em, err := buildEdgeMeta(HasSpec, from, to, HasKey(from, to))
	if err != nil {
		return nil, err
	}
	return &Has{EdgeMeta: em}, nil
}

// Had

// HadSpec binds the historical counterpart of Has: it records that the
// relationship existed and when it was severed. The deletion timestamp is
// part of the key so repeated add/remove cycles keep distinct records.
var HadSpec = graph.TypeSpec{
	Collection:    "had",
	SchemaVersion: 1,
	FromKinds:     []string{"users", "playlists"},
	ToKinds:       []string{"playlists", "audios"},
}

// Had is a retired Has relationship kept for history.
type Had struct {
	graph.EdgeMeta

	DeletedAt int64 `validate:"required"`
}

// HadKey derives the Had edge key: the pair plus the deletion timestamp.
func HadKey(from, to graph.Vertex, deletedAt int64) string {
	pair := pairKey(from, to)
	if pair == "" || deletedAt == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", pair, deletedAt)
}

// NewHad builds a transient Had edge recording a severed Has.
func NewHad(from, to graph.Vertex, deletedAt int64) (*Had, error) {
	em, err := buildEdgeMeta(HadSpec, from, to, HadKey(from, to, deletedAt))
	if err != nil {
		return nil, err
	}
	return &Had{EdgeMeta: em, DeletedAt: deletedAt}, nil
}

func (h *Had) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "deleted_at", Value: h.DeletedAt},
	}, nil
}

func (h *Had) DecodeAttrs(fs graph.Fields) error {
	h.DeletedAt = fs.GetInt64("deleted_at")
	return nil
}

// Downloaded

// DownloadedSpec binds the user-to-download ownership edge.
var DownloadedSpec = graph.TypeSpec{
	Collection:    "downloaded",
	SchemaVersion: 1,
	FromKinds:     []string{"users"},
	ToKinds:       []string{"downloads"},
}

// Downloaded links a user to a download they triggered.
type Downloaded struct {
	graph.EdgeMeta
	noAttrs
}

// DownloadedKey derives the Downloaded edge key.
func DownloadedKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewDownloaded builds a transient Downloaded edge.
func NewDownloaded(user *User, download *Download) (*Downloaded, error) {
	em, err := buildEdgeMeta(DownloadedSpec, user, download, DownloadedKey(user, download))
	if err != nil {
		return nil, err
	}
	return &Downloaded{EdgeMeta: em}, nil
}

// FromHit

// FromHitSpec binds the download-to-hit provenance edge.
var FromHitSpec = graph.TypeSpec{
	Collection:    "from_hit",
	SchemaVersion: 1,
	FromKinds:     []string{"downloads"},
	ToKinds:       []string{"hits"},
}

// FromHit links a download to the search hit it came from.
type FromHit struct {
	graph.EdgeMeta
	noAttrs
}

// FromHitKey derives the FromHit edge key.
func FromHitKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewFromHit builds a transient FromHit edge.
func NewFromHit(download *Download, hit *Hit) (*FromHit, error) {
	em, err := buildEdgeMeta(FromHitSpec, download, hit, FromHitKey(download, hit))
	if err != nil {
		return nil, err
	}
	return &FromHit{EdgeMeta: em}, nil
}

// ToAudio

// ToAudioSpec binds the provenance edge pointing hits and downloads at
// the audio they concern.
var ToAudioSpec = graph.TypeSpec{
	Collection:    "to_audio",
	SchemaVersion: 1,
	FromKinds:     []string{"hits", "downloads"},
	ToKinds:       []string{"audios"},
}

// ToAudio links a hit or download to its audio.
type ToAudio struct {
	graph.EdgeMeta
	noAttrs
}

// ToAudioKey derives the ToAudio edge key.
func ToAudioKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewToAudio builds a transient ToAudio edge.
func NewToAudio(from graph.Vertex, audio *Audio) (*ToAudio, error) {
	em, err := buildEdgeMeta(ToAudioSpec, from, audio, ToAudioKey(from, audio))
	if err != nil {
		return nil, err
	}
	return &ToAudio{EdgeMeta: em}, nil
}

// FileRef

// FileRefSpec binds the structural audio-to-file edge.
var FileRefSpec = graph.TypeSpec{
	Collection:    "file_ref",
	SchemaVersion: 1,
	FromKinds:     []string{"audios"},
	ToKinds:       []string{"files"},
}

// FileRef links an audio to the Telegram file backing it.
type FileRef struct {
	graph.EdgeMeta
	noAttrs
}

// FileRefKey derives the FileRef edge key.
func FileRefKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewFileRef builds a transient FileRef edge.
func NewFileRef(audio *Audio, file *File) (*FileRef, error) {
	em, err := buildEdgeMeta(FileRefSpec, audio, file, FileRefKey(audio, file))
	if err != nil {
		return nil, err
	}
	return &FileRef{EdgeMeta: em}, nil
}

// LinkedChat

// LinkedChatSpec binds the chat-to-chat structural edge (a channel and
// its discussion group).
var LinkedChatSpec = graph.TypeSpec{
	Collection:    "linked_chat",
	SchemaVersion: 1,
	FromKinds:     []string{"chats"},
	ToKinds:       []string{"chats"},
}

// LinkedChat links a chat to its Telegram-linked counterpart.
type LinkedChat struct {
	graph.EdgeMeta
	noAttrs
}

// LinkedChatKey derives the LinkedChat edge key.
func LinkedChatKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewLinkedChat builds a transient LinkedChat edge.
func NewLinkedChat(from, to *Chat) (*LinkedChat, error) {
	em, err := buildEdgeMeta(LinkedChatSpec, from, to, LinkedChatKey(from, to))
	if err != nil {
		return nil, err
	}
	return &LinkedChat{EdgeMeta: em}, nil
}

// SentBy

// SentBySpec binds the audio-to-chat provenance edge.
var SentBySpec = graph.TypeSpec{
	Collection:    "sent_by",
	SchemaVersion: 1,
	FromKinds:     []string{"audios"},
	ToKinds:       []string{"chats"},
}

// SentBy links an audio to the chat its message was found in.
type SentBy struct {
	graph.EdgeMeta
	noAttrs
}

// SentByKey derives the SentBy edge key.
func SentByKey(from, to graph.Vertex) string { return pairKey(from, to) }

// NewSentBy builds a transient SentBy edge.
func NewSentBy(audio *Audio, chat *Chat) (*SentBy, error) {
	em, err := buildEdgeMeta(SentBySpec, audio, chat, SentByKey(audio, chat))
	if err != nil {
		return nil, err
	}
	return &SentBy{EdgeMeta: em}, nil
}
