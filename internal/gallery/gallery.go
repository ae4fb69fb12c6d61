package gallery

import (
	"image"
	"log/slog"

	"github.com/jo-hoe/goclipart/internal/artwork"
)

// Entry is one discovered piece of artwork with its decoded thumbnail.
type Entry struct {
	Path      string
	Thumbnail image.Image
}

// Gallery keeps entries in discovery order.
type Gallery struct {
	entries []Entry
}

func New(entries ...Entry) *Gallery {
	return &Gallery{entries: entries}
}

// Populate decodes every path and keeps the ones that produced a thumbnail.
// Failed files are skipped.
func Populate(paths []string, decoder artwork.Decoder, size int) *Gallery {
	g := &Gallery{entries: make([]Entry, 0, len(paths))}
	skipped := 0
	for _, path := range paths {
		thumb, ok := TryDecode(decoder, path, size)
		if !ok {
			skipped++
			continue
		}
		g.entries = append(g.entries, Entry{Path: path, Thumbnail: thumb})
	}

	slog.Info("Gallery: populated", "entries", len(g.entries), "skipped", skipped)
	return g
}

// TryDecode reports whether path could be decoded into a thumbnail.
func TryDecode(decoder artwork.Decoder, path string, size int) (image.Image, bool) {
	thumb, err := decoder.Decode(path, size)
	if err != nil {
		slog.Debug("Gallery: skipping artwork", "path", path, "error", err)
		return nil, false
	}
	if thumb == nil {
		return nil, false
	}
	return thumb, true
}

func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// At returns the entry at index i, or false when i is out of range.
func (g *Gallery) At(i int) (Entry, bool) {
	if g == nil || i < 0 || i >= len(g.entries) {
		return Entry{}, false
	}
	return g.entries[i], true
}

// Entries returns a copy of the backing list.
func (g *Gallery) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}
