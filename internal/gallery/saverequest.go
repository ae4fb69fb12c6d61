package gallery

import (
	"path/filepath"
	"strings"

	"github.com/jo-hoe/goclipart/internal/journal"
	"github.com/jo-hoe/goclipart/internal/profile"
)

var mimeTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
	"gif": "image/gif",
	"jpg": "image/jpeg",
}

// MIMEType looks up the MIME type for the extension of path.
func MIMEType(path string) (string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	mime, ok := mimeTypes[ext]
	return mime, ok
}

// SaveRequest is the journal metadata derived from a selected entry.
type SaveRequest struct {
	Title     string
	MIMEType  string
	IconColor string
	FilePath  string
}

func NewSaveRequest(path string, color profile.XoColor) SaveRequest {
	base := filepath.Base(path)
	mime, _ := MIMEType(path)
	return SaveRequest{
		Title:     strings.TrimSuffix(base, filepath.Ext(base)),
		MIMEType:  mime,
		IconColor: color.String(),
		FilePath:  path,
	}
}

// Apply copies the request onto a journal object.
func (r SaveRequest) Apply(obj *journal.Object) {
	obj.Metadata[journal.MetadataTitle] = r.Title
	obj.Metadata[journal.MetadataIconColor] = r.IconColor
	if r.MIMEType != "" {
		obj.Metadata[journal.MetadataMIMEType] = r.MIMEType
	}
	obj.SetFilePath(r.FilePath)
}
