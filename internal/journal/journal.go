// Package journal stores saved artwork together with its metadata.
package journal

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// Well-known metadata keys.
const (
	MetadataTitle     = "title"
	MetadataIconColor = "icon-color"
	MetadataMIMEType  = "mime_type"
	MetadataTimestamp = "timestamp"
)

var (
	ErrNotFound   = errors.New("journal entry not found")
	ErrDestroyed  = errors.New("journal object has been destroyed")
	ErrNoFilePath = errors.New("journal object has no file path")
)

// Object is a handle to a journal entry that has not been written yet.
type Object struct {
	ID        string
	Metadata  map[string]string
	filePath  string
	destroyed bool
}

func (o *Object) SetFilePath(path string) {
	o.filePath = path
}

func (o *Object) FilePath() string {
	return o.filePath
}

// Entry is a written journal record.
type Entry struct {
	ID        string
	Metadata  map[string]string
	FilePath  string
	Data      []byte
	Timestamp time.Time
}

func (e Entry) Title() string {
	return e.Metadata[MetadataTitle]
}

func (e Entry) MIMEType() string {
	return e.Metadata[MetadataMIMEType]
}

func (e Entry) IconColor() string {
	return e.Metadata[MetadataIconColor]
}

type Store interface {
	Create() *Object
	Write(ctx context.Context, obj *Object) error
	Destroy(obj *Object)
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Close() error
}

// objectFactory holds the handle lifecycle shared by all backends.
type objectFactory struct {
	fs  billy.Filesystem
	now func() time.Time
}

func newObjectFactory(fs billy.Filesystem) objectFactory {
	return objectFactory{fs: fs, now: time.Now}
}

func (f objectFactory) Create() *Object {
	return &Object{
		ID:       uuid.NewString(),
		Metadata: make(map[string]string),
	}
}

// Destroy releases the handle. Written entries are not affected.
func (f objectFactory) Destroy(obj *Object) {
	if obj == nil {
		return
	}
	obj.destroyed = true
	obj.Metadata = nil
	obj.filePath = ""
}

// prepare validates obj and reads its file into an Entry ready to be stored.
func (f objectFactory) prepare(obj *Object) (Entry, error) {
	if obj == nil || obj.destroyed {
		return Entry{}, ErrDestroyed
	}
	if obj.filePath == "" {
		return Entry{}, ErrNoFilePath
	}

	data, err := util.ReadFile(f.fs, obj.filePath)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s: %w", obj.filePath, err)
	}

	ts := f.now().UTC()
	metadata := maps.Clone(obj.Metadata)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata[MetadataTimestamp] = strconv.FormatInt(ts.Unix(), 10)

	return Entry{
		ID:        obj.ID,
		Metadata:  metadata,
		FilePath:  obj.filePath,
		Data:      data,
		Timestamp: ts,
	}, nil
}
