package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload categories.
const (
	CategoryImage = "image"
	CategoryVideo = "video"
	CategoryAudio = "audio"
	CategoryFile  = "file"
)

// ErrWrongType is returned when an upload does not sniff as the category
// it was sent for.
var ErrWrongType = errors.New("file type not allowed")

// Sniff detects the MIME type of data and checks it belongs to category.
// CategoryFile accepts anything. It returns the detected type and its
// canonical extension.
func Sniff(data []byte, category string) (contentType, ext string, err error) {
	m := mimetype.Detect(data)
	if category != CategoryFile && !strings.HasPrefix(m.String(), category+"/") {
		return "", "", ErrWrongType
	}
	return m.String(), m.Extension(), nil
}

// NewKey builds a collision-free key below dir, keeping ext (or the
// extension of filename when ext is empty).
func NewKey(dir, filename, ext string) string {
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	return path.Join(dir, uuid.NewString()+ext)
}
