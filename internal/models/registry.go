package models

import "github.com/appheap/tase/internal/graph"

// Every model must satisfy the generic layer's contracts; a field or
// method added to a model that shadows a promoted accessor breaks these
// at compile time.
var (
	_ graph.Vertex = (*User)(nil)
	_ graph.Vertex = (*Chat)(nil)
	_ graph.Vertex = (*Audio)(nil)
	_ graph.Vertex = (*File)(nil)
	_ graph.Vertex = (*Playlist)(nil)
	_ graph.Vertex = (*Download)(nil)
	_ graph.Vertex = (*Hit)(nil)
	_ graph.Vertex = (*Username)(nil)

	_ graph.Edge = (*Has)(nil)
	_ graph.Edge = (*Had)(nil)
	_ graph.Edge = (*Downloaded)(nil)
	_ graph.Edge = (*FromHit)(nil)
	_ graph.Edge = (*ToAudio)(nil)
	_ graph.Edge = (*FileRef)(nil)
	_ graph.Edge = (*LinkedChat)(nil)
	_ graph.Edge = (*SentBy)(nil)
	_ graph.Edge = (*SubscribedTo)(nil)
	_ graph.Edge = (*Mentions)(nil)
)

// vertexSpecs and edgeSpecs are the explicit registration tables of every
// bound type; schema management and the database facade both read them,
// so adding a type here is the single step that wires it everywhere.
var vertexSpecs = []graph.TypeSpec{
	UserSpec,
	ChatSpec,
	AudioSpec,
	FileSpec,
	PlaylistSpec,
	DownloadSpec,
	HitSpec,
	UsernameSpec,
}

var edgeSpecs = []graph.TypeSpec{
	HasSpec,
	HadSpec,
	DownloadedSpec,
	FromHitSpec,
	ToAudioSpec,
	FileRefSpec,
	LinkedChatSpec,
	SentBySpec,
	SubscribedToSpec,
	MentionsSpec,
}

// VertexCollections lists every registered node collection.
func VertexCollections() []string {
	out := make([]string, 0, len(vertexSpecs))
	for _, s := range vertexSpecs {
		out = append(out, s.Collection)
	}
	return out
}

// EdgeCollections lists every registered link collection.
func EdgeCollections() []string {
	out := make([]string, 0, len(edgeSpecs))
	for _, s := range edgeSpecs {
		out = append(out, s.Collection)
	}
	return out
}
