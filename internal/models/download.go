package models

import (
	"github.com/google/uuid"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// DownloadSpec binds Download to its collection.
var DownloadSpec = graph.TypeSpec{
	Collection:    "downloads",
	SchemaVersion: 1,
}

// Download records one delivery of an audio to a user.
type Download struct {
	graph.Meta

	AudioKey string `validate:"required"`
	HitToken string
	Date     int64
}

// Collection returns the bound collection name.
func (*Download) Collection() string { return DownloadSpec.Collection }

// NewDownload builds a transient Download with a fresh random key.
func NewDownload(audioKey, hitToken string, date int64) (*Download, error) {
	if audioKey == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "download requires an audio key", nil)
	}
	d := &Download{
		AudioKey: audioKey,
		HitToken: hitToken,
		Date:     date,
	}
	d.Key = uuid.NewString()
	return d, nil
}

func (d *Download) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "audio_key", Value: d.AudioKey},
		{Name: "hit_token", Value: d.HitToken},
		{Name: "date", Value: d.Date},
	}, nil
}

func (d *Download) DecodeAttrs(fs graph.Fields) error {
	d.AudioKey = fs.GetString("audio_key")
	d.HitToken = fs.GetString("hit_token")
	d.Date = fs.GetInt64("date")
	return nil
}
