package models

import (
	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// HitSpec binds Hit to its collection.
var HitSpec = graph.TypeSpec{
	Collection:    "hits",
	SchemaVersion: 1,
}

// Hit records one search result shown to a user. The download token is
// the process-wide unique handle embedded in the result message, so it
// doubles as the key.
type Hit struct {
	graph.Meta

	DownloadToken string `validate:"required"`
	Query         string
	Rank          int64
	Score         float64
	Date          int64
}

// Collection returns the bound collection name.
func (*Hit) Collection() string { return HitSpec.Collection }

// HitKey derives the collection key from the download token.
func HitKey(downloadToken string) string { return downloadToken }

// NewHit builds a transient Hit.
func NewHit(downloadToken, query string, rank int64, score float64, date int64) (*Hit, error) {
	if downloadToken == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "hit requires a download token", nil)
	}
	h := &Hit{
		DownloadToken: downloadToken,
		Query:         query,
		Rank:          rank,
		Score:         score,
		Date:          date,
	}
	h.Key = HitKey(downloadToken)
	return h, nil
}

func (h *Hit) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "download_token", Value: h.DownloadToken},
		{Name: "query", Value: h.Query},
		{Name: "rank", Value: h.Rank},
		{Name: "score", Value: h.Score},
		{Name: "date", Value: h.Date},
	}, nil
}

func (h *Hit) DecodeAttrs(fs graph.Fields) error {
	h.DownloadToken = fs.GetString("download_token")
	h.Query = fs.GetString("query")
	h.Rank = fs.GetInt64("rank")
	h.Score = fs.GetFloat64("score")
	h.Date = fs.GetInt64("date")
	return nil
}
