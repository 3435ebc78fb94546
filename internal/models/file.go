package models

import (
	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/pkg/errors"
)

// FileSpec binds File to its collection.
var FileSpec = graph.TypeSpec{
	Collection:    "files",
	SchemaVersion: 1,
}

// File is the Telegram file backing one or more Audio vertices. The
// file_unique_id is stable across bots; file_id is the bot-scoped handle
// used for forwarding and may be refreshed.
type File struct {
	graph.Meta

	FileUniqueID string `validate:"required"`
	FileID       string
	Size         int64
}

// Collection returns the bound collection name.
func (*File) Collection() string { return FileSpec.Collection }

// FileKey derives the collection key from the stable file identifier.
func FileKey(fileUniqueID string) string { return fileUniqueID }

// NewFile builds a transient File.
func NewFile(fileUniqueID, fileID string, size int64) (*File, error) {
	if fileUniqueID == "" {
		return nil, errors.New(errors.ErrorTypeUsage, "file requires a unique id", nil)
	}
	f := &File{
		FileUniqueID: fileUniqueID,
		FileID:       fileID,
		Size:         size,
	}
	f.Key = FileKey(fileUniqueID)
	return f, nil
}

func (f *File) EncodeAttrs() (graph.Fields, error) {
	return graph.Fields{
		{Name: "file_unique_id", Value: f.FileUniqueID},
		{Name: "file_id", Value: f.FileID},
		{Name: "size", Value: f.Size},
	}, nil
}

func (f *File) DecodeAttrs(fs graph.Fields) error {
	f.FileUniqueID = fs.GetString("file_unique_id")
	f.FileID = fs.GetString("file_id")
	f.Size = fs.GetInt64("size")
	return nil
}
