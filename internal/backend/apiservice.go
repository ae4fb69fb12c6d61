package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jo-hoe/goclipart/internal/core"
	"github.com/jo-hoe/goclipart/internal/journal"
	"github.com/labstack/echo/v4"
)

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

// ArtworkResponse describes one gallery cell.
type ArtworkResponse struct {
	Index        int    `json:"index"`
	Path         string `json:"path"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type ViewResponse struct {
	Populated     bool   `json:"populated"`
	AlertVisible  bool   `json:"alertVisible"`
	Entries       int    `json:"entries"`
	State         string `json:"state"`
	SelectedIndex int    `json:"selectedIndex"`
	SelectedPath  string `json:"selectedPath,omitempty"`
	SaveEnabled   bool   `json:"saveEnabled"`
}

type SelectionRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type SaveResponse struct {
	Saved bool         `json:"saved"`
	View  ViewResponse `json:"view"`
}

type JournalEntryResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	MIMEType  string            `json:"mimeType,omitempty"`
	IconColor string            `json:"iconColor"`
	FilePath  string            `json:"filePath"`
	Size      int               `json:"size"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	e.GET("/api/view", s.getView)
	e.GET("/api/artwork", s.listArtwork)
	e.GET("/api/selection", s.getView)
	e.PUT("/api/selection", s.putSelection)
	e.DELETE("/api/selection", s.deleteSelection)
	e.POST("/api/save", s.save)
	e.GET("/api/journal", s.listJournal)
}

func (s *APIService) getView(c echo.Context) error {
	view, err := s.coreService.View(c.Request().Context())
	if err != nil {
		slog.Error("getView: core service unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "core service unavailable")
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

func (s *APIService) listArtwork(c echo.Context) error {
	entries, err := s.coreService.Entries(c.Request().Context())
	if err != nil {
		slog.Error("listArtwork: core service unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "core service unavailable")
	}

	response := make([]ArtworkResponse, 0, len(entries))
	for i, entry := range entries {
		response = append(response, ArtworkResponse{
			Index:        i,
			Path:         entry.Path,
			ThumbnailURL: thumbnailURL(i),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIService) putSelection(c echo.Context) error {
	var request SelectionRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&request); err != nil {
		return err
	}

	view, err := s.coreService.Select(c.Request().Context(), *request.Index)
	if err != nil {
		slog.Error("putSelection: core service unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "core service unavailable")
	}
	if view.SelectedIndex != *request.Index {
		return echo.NewHTTPError(http.StatusNotFound, "no artwork at this index")
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

func (s *APIService) deleteSelection(c echo.Context) error {
	view, err := s.coreService.Deselect(c.Request().Context())
	if err != nil {
		slog.Error("deleteSelection: core service unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "core service unavailable")
	}
	return c.JSON(http.StatusOK, toViewResponse(view))
}

func (s *APIService) save(c echo.Context) error {
	saved, view, err := s.coreService.Save(c.Request().Context())
	if errors.Is(err, core.ErrUnavailable) {
		slog.Error("save: core service unavailable", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "core service unavailable")
	}
	if err != nil {
		slog.Error("save: failed to write journal entry", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to write journal entry")
	}
	if !saved {
		return c.JSON(http.StatusConflict, SaveResponse{Saved: false, View: toViewResponse(view)})
	}
	return c.JSON(http.StatusCreated, SaveResponse{Saved: true, View: toViewResponse(view)})
}

func (s *APIService) listJournal(c echo.Context) error {
	entries, err := s.coreService.JournalEntries(c.Request().Context())
	if err != nil {
		slog.Error("listJournal: failed to list journal entries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list journal entries")
	}

	response := make([]JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, toJournalEntryResponse(entry))
	}
	return c.JSON(http.StatusOK, response)
}

func toViewResponse(view core.View) ViewResponse {
	return ViewResponse{
		Populated:     view.Populated,
		AlertVisible:  view.AlertVisible,
		Entries:       view.Entries,
		State:         view.State.String(),
		SelectedIndex: view.SelectedIndex,
		SelectedPath:  view.SelectedPath,
		SaveEnabled:   view.SaveEnabled,
	}
}

func toJournalEntryResponse(entry journal.Entry) JournalEntryResponse {
	return JournalEntryResponse{
		ID:        entry.ID,
		Title:     entry.Title(),
		MIMEType:  entry.MIMEType(),
		IconColor: entry.IconColor(),
		FilePath:  entry.FilePath,
		Size:      len(entry.Data),
		Timestamp: entry.Timestamp,
		Metadata:  entry.Metadata,
	}
}

func thumbnailURL(index int) string {
	return "/htmx/thumbnail/" + strconv.Itoa(index)
}
