package gallery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/goclipart/internal/journal"
	"github.com/jo-hoe/goclipart/internal/profile"
)

type State int

const (
	NoSelection State = iota
	Selected
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "NoSelection"
	case Selected:
		return "Selected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// JournalWriter is the part of the journal the controller saves through.
type JournalWriter interface {
	Create() *journal.Object
	Write(ctx context.Context, obj *journal.Object) error
	Destroy(obj *journal.Object)
}

// Controller holds the single selection of a gallery and the enabled state
// of the save action. It is not safe for concurrent use.
type Controller struct {
	gallery     *Gallery
	journal     JournalWriter
	profile     profile.Profile
	selected    int
	saveEnabled bool
}

func NewController(g *Gallery, j JournalWriter, p profile.Profile) *Controller {
	return &Controller{
		gallery:  g,
		journal:  j,
		profile:  p,
		selected: -1,
	}
}

// SetGallery replaces the backing list and clears the selection.
func (c *Controller) SetGallery(g *Gallery) {
	c.gallery = g
	c.clear()
}

func (c *Controller) Gallery() *Gallery {
	return c.gallery
}

// SelectionChanged applies the selection reported by the grid. Only the first
// index is used; an index that does not resolve counts as no selection.
func (c *Controller) SelectionChanged(indices []int) State {
	if len(indices) == 0 {
		c.clear()
		return c.State()
	}

	i := indices[0]
	if _, ok := c.gallery.At(i); !ok {
		slog.Debug("Controller: selection index not resolvable", "index", i, "entries", c.gallery.Len())
		c.clear()
		return c.State()
	}

	c.selected = i
	c.saveEnabled = true
	return c.State()
}

func (c *Controller) Select(i int) State {
	return c.SelectionChanged([]int{i})
}

func (c *Controller) Deselect() State {
	return c.SelectionChanged(nil)
}

func (c *Controller) State() State {
	if c.selected < 0 {
		return NoSelection
	}
	return Selected
}

// Selected returns the selected entry and its index.
func (c *Controller) Selected() (Entry, int, bool) {
	if c.selected < 0 {
		return Entry{}, -1, false
	}
	e, ok := c.gallery.At(c.selected)
	if !ok {
		return Entry{}, -1, false
	}
	return e, c.selected, true
}

func (c *Controller) SaveEnabled() bool {
	return c.saveEnabled
}

// Save writes the selected entry to the journal. It returns false without
// touching the journal when the save action is disabled. After an attempt
// the action stays disabled until the selection changes, whether or not the
// write succeeded.
func (c *Controller) Save(ctx context.Context) (bool, error) {
	if !c.saveEnabled {
		return false, nil
	}
	entry, _, ok := c.Selected()
	if !ok {
		c.saveEnabled = false
		return false, nil
	}
	defer func() { c.saveEnabled = false }()

	req := NewSaveRequest(entry.Path, c.profile.Color())
	obj := c.journal.Create()
	defer c.journal.Destroy(obj)
	req.Apply(obj)

	if err := c.journal.Write(ctx, obj); err != nil {
		slog.Error("Controller: failed to write journal entry", "path", entry.Path, "error", err)
		return false, fmt.Errorf("failed to save %s to journal: %w", entry.Path, err)
	}

	slog.Info("Controller: saved to journal",
		"path", entry.Path,
		"title", req.Title,
		"mime_type", req.MIMEType,
		"object_id", obj.ID)
	return true, nil
}

func (c *Controller) clear() {
	c.selected = -1
	c.saveEnabled = false
}
