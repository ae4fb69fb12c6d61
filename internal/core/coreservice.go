package core

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jo-hoe/goclipart/internal/artwork"
	"github.com/jo-hoe/goclipart/internal/eventloop"
	"github.com/jo-hoe/goclipart/internal/gallery"
	"github.com/jo-hoe/goclipart/internal/journal"
	"github.com/jo-hoe/goclipart/internal/profile"
)

var (
	ErrNoSuchEntry = errors.New("no such gallery entry")
	ErrUnavailable = errors.New("core service unavailable")
)

// Dependencies lets callers replace collaborators; nil fields are built from
// the configuration.
type Dependencies struct {
	Filesystem billy.Filesystem
	Decoder    artwork.Decoder
	Journal    journal.Store
	Profile    profile.Profile
}

// View is a consistent snapshot of what the UI shows.
type View struct {
	Populated     bool
	AlertVisible  bool
	Entries       int
	State         gallery.State
	SelectedIndex int
	SelectedPath  string
	SaveEnabled   bool
}

// CoreService owns the gallery and runs every state change on one event loop.
type CoreService struct {
	config     *ServiceConfig
	loop       *eventloop.Loop
	scanner    *artwork.Scanner
	decoder    artwork.Decoder
	journal    journal.Store
	controller *gallery.Controller

	// owned by the loop goroutine
	populated    bool
	alertVisible bool

	// last view published by the loop, readable while a callback is running
	snapshot atomic.Pointer[View]
}

// NewCoreService wires the service. config.ActivitiesRoot must already be resolved.
func NewCoreService(config *ServiceConfig, deps Dependencies) (*CoreService, error) {
	if config.ActivitiesRoot == "" {
		return nil, errors.New("activities root is not set")
	}

	fs := deps.Filesystem
	if fs == nil {
		fs = osfs.New("/")
	}

	decoder := deps.Decoder
	if decoder == nil {
		decoder = artwork.NewThumbnailDecoder(fs)
	}

	userProfile := deps.Profile
	if userProfile == nil {
		color, err := profile.ParseXoColor(config.IconColor)
		if err != nil {
			return nil, err
		}
		userProfile = profile.NewStatic(color)
	}

	store := deps.Journal
	if store == nil {
		var err error
		store, err = getJournalStore(config, fs)
		if err != nil {
			return nil, err
		}
	}

	s := &CoreService{
		config:     config,
		loop:       eventloop.New(),
		scanner:    artwork.NewScanner(fs, config.ActivitiesRoot),
		decoder:    decoder,
		journal:    store,
		controller: gallery.NewController(gallery.New(), store, userProfile),
	}
	s.publish()
	return s, nil
}

func getJournalStore(config *ServiceConfig, fs billy.Filesystem) (journal.Store, error) {
	store, err := journal.NewStore(config.Journal.Type, config.Journal.ConnectionString, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}
	return store, nil
}

// Start runs the event loop until ctx is done. The scanning alert is
// published before the loop starts and population is deferred until the loop
// is idle. View keeps answering from the published snapshot while the scan
// blocks the loop.
func (s *CoreService) Start(ctx context.Context) error {
	s.alertVisible = true
	s.publish()

	go func() {
		_ = s.loop.Run(ctx)
	}()

	if err := s.loop.IdleAdd(s.populate); err != nil {
		return fmt.Errorf("failed to schedule artwork scan: %w", err)
	}

	slog.Info("core service started", "activities_root", s.scanner.Root())
	return nil
}

// Done is closed when the event loop has stopped.
func (s *CoreService) Done() <-chan struct{} {
	return s.loop.Done()
}

func (s *CoreService) Close() error {
	return s.journal.Close()
}

// populate marks the gallery as populated even when a decode panics, leaving
// it empty, so the UI stops waiting.
func (s *CoreService) populate() {
	defer func() {
		s.populated = true
		s.publish()
	}()

	slog.Info("scanning for clipart", "root", s.scanner.Root())
	paths := s.scanner.Scan()
	g := gallery.Populate(paths, s.decoder, s.config.ThumbnailSize)
	s.controller.SetGallery(g)
}

// View returns the last published snapshot without waiting for the loop.
func (s *CoreService) View(ctx context.Context) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	return *s.snapshot.Load(), nil
}

// publish stores the current view. Loop goroutine only, or before Start.
func (s *CoreService) publish() View {
	v := s.view()
	s.snapshot.Store(&v)
	return v
}

func (s *CoreService) view() View {
	v := View{
		Populated:     s.populated,
		AlertVisible:  s.alertVisible,
		Entries:       s.controller.Gallery().Len(),
		State:         s.controller.State(),
		SelectedIndex: -1,
		SaveEnabled:   s.controller.SaveEnabled(),
	}
	if e, i, ok := s.controller.Selected(); ok {
		v.SelectedIndex = i
		v.SelectedPath = e.Path
	}
	return v
}

func (s *CoreService) Entries(ctx context.Context) ([]gallery.Entry, error) {
	var entries []gallery.Entry
	err := s.loop.Call(ctx, func() {
		entries = s.controller.Gallery().Entries()
	})
	return entries, err
}

func (s *CoreService) Thumbnail(ctx context.Context, index int) (image.Image, error) {
	var (
		entry gallery.Entry
		ok    bool
	)
	if err := s.loop.Call(ctx, func() {
		entry, ok = s.controller.Gallery().At(index)
	}); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchEntry, index)
	}
	return entry.Thumbnail, nil
}

// SelectionChanged forwards a grid selection event.
func (s *CoreService) SelectionChanged(ctx context.Context, indices []int) (View, error) {
	var v View
	err := s.loop.Call(ctx, func() {
		s.controller.SelectionChanged(indices)
		v = s.publish()
	})
	return v, err
}

func (s *CoreService) Select(ctx context.Context, index int) (View, error) {
	return s.SelectionChanged(ctx, []int{index})
}

func (s *CoreService) Deselect(ctx context.Context) (View, error) {
	return s.SelectionChanged(ctx, nil)
}

// Save forwards a save-button click. saved is false when the action was disabled.
// Once the click is queued the journal write is not cancelled with ctx.
func (s *CoreService) Save(ctx context.Context) (saved bool, v View, err error) {
	writeCtx := context.WithoutCancel(ctx)
	var saveErr error
	callErr := s.loop.Call(ctx, func() {
		saved, saveErr = s.controller.Save(writeCtx)
		v = s.publish()
	})
	if callErr != nil {
		return false, View{}, fmt.Errorf("%w: %w", ErrUnavailable, callErr)
	}
	return saved, v, saveErr
}

// DismissAlert hides the scanning alert. It is never hidden automatically.
func (s *CoreService) DismissAlert(ctx context.Context) (View, error) {
	var v View
	err := s.loop.Call(ctx, func() {
		s.alertVisible = false
		v = s.publish()
	})
	return v, err
}

// JournalEntries lists what has been saved so far.
func (s *CoreService) JournalEntries(ctx context.Context) ([]journal.Entry, error) {
	return s.journal.List(ctx)
}
