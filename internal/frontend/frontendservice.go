package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jo-hoe/goclipart/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"

	indexTemplate = "index"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

// pageData is what every template receives.
type pageData struct {
	View          core.View
	Items         []galleryItem
	Message       string
	Timestamp     string
	ThumbnailSize int
}

type galleryItem struct {
	Index    int
	Name     string
	Selected bool
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	e.GET("/htmx/gallery", service.htmxGalleryHandler)
	e.GET("/htmx/thumbnail/:index", service.htmxThumbnailHandler)
	e.POST("/htmx/select/:index", service.htmxSelectHandler)
	e.POST("/htmx/deselect", service.htmxDeselectHandler)
	e.POST("/htmx/save", service.htmxSaveHandler)
	e.POST("/htmx/alert/dismiss", service.htmxDismissAlertHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	view, err := service.coreService.View(ctx.Request().Context())
	if err != nil {
		slog.Error("indexHandler: failed to read view", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}
	return ctx.Render(http.StatusOK, indexTemplate, service.newPageData(view, nil, ""))
}

func (service *FrontendService) htmxGalleryHandler(ctx echo.Context) error {
	view, err := service.coreService.View(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxGalleryHandler: failed to read view", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}
	data, err := service.galleryData(ctx, view, "")
	if err != nil {
		return err
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "gallery", data)
}

func (service *FrontendService) htmxThumbnailHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		slog.Warn("htmxThumbnailHandler: invalid index",
			"status", http.StatusBadRequest, "index", ctx.Param("index"))
		return ctx.String(http.StatusBadRequest, "Invalid index")
	}

	thumb, err := service.coreService.Thumbnail(ctx.Request().Context(), index)
	if errors.Is(err, core.ErrNoSuchEntry) {
		slog.Warn("htmxThumbnailHandler: thumbnail not available",
			"status", http.StatusNotFound, "index", index)
		return ctx.String(http.StatusNotFound, "Thumbnail not available")
	}
	if err != nil {
		slog.Error("htmxThumbnailHandler: failed to read thumbnail",
			"status", http.StatusServiceUnavailable, "index", index, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		slog.Error("htmxThumbnailHandler: failed to encode thumbnail",
			"status", http.StatusInternalServerError, "index", index, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to encode thumbnail")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, buf.Bytes())
}

func (service *FrontendService) htmxSelectHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		slog.Warn("htmxSelectHandler: invalid index",
			"status", http.StatusBadRequest, "index", ctx.Param("index"))
		return ctx.String(http.StatusBadRequest, "Invalid index")
	}

	view, err := service.coreService.Select(ctx.Request().Context(), index)
	if err != nil {
		slog.Error("htmxSelectHandler: failed to select", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}
	return service.renderSelection(ctx, view)
}

func (service *FrontendService) htmxDeselectHandler(ctx echo.Context) error {
	view, err := service.coreService.Deselect(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxDeselectHandler: failed to deselect", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}
	return service.renderSelection(ctx, view)
}

// renderSelection returns the gallery plus an out-of-band toolbar update.
func (service *FrontendService) renderSelection(ctx echo.Context, view core.View) error {
	data, err := service.galleryData(ctx, view, "")
	if err != nil {
		return err
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "selection", data)
}

func (service *FrontendService) htmxSaveHandler(ctx echo.Context) error {
	saved, view, err := service.coreService.Save(ctx.Request().Context())

	message := ""
	switch {
	case errors.Is(err, core.ErrUnavailable):
		slog.Error("htmxSaveHandler: core unavailable", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	case err != nil:
		slog.Error("htmxSaveHandler: failed to save to journal", "error", err)
		message = "Could not save to the Journal."
	case saved:
		message = fmt.Sprintf("Saved %s to the Journal.", filepath.Base(view.SelectedPath))
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "toolbar", service.newPageData(view, nil, message))
}

func (service *FrontendService) htmxDismissAlertHandler(ctx echo.Context) error {
	view, err := service.coreService.DismissAlert(ctx.Request().Context())
	if err != nil {
		slog.Error("htmxDismissAlertHandler: failed to dismiss alert", "status", http.StatusServiceUnavailable, "error", err)
		return ctx.String(http.StatusServiceUnavailable, "Service not ready")
	}
	return ctx.Render(http.StatusOK, "alert", service.newPageData(view, nil, ""))
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) galleryData(ctx echo.Context, view core.View, message string) (pageData, error) {
	if !view.Populated {
		return service.newPageData(view, nil, message), nil
	}

	entries, err := service.coreService.Entries(ctx.Request().Context())
	if err != nil {
		slog.Error("galleryData: failed to list entries", "status", http.StatusServiceUnavailable, "error", err)
		return pageData{}, echo.NewHTTPError(http.StatusServiceUnavailable, "Service not ready")
	}

	items := make([]galleryItem, 0, len(entries))
	for i, e := range entries {
		items = append(items, galleryItem{
			Index:    i,
			Name:     filepath.Base(e.Path),
			Selected: i == view.SelectedIndex,
		})
	}
	return service.newPageData(view, items, message), nil
}

func (service *FrontendService) newPageData(view core.View, items []galleryItem, message string) pageData {
	return pageData{
		View:          view,
		Items:         items,
		Message:       message,
		Timestamp:     service.timestampNanoStr(),
		ThumbnailSize: service.config.ThumbnailSize,
	}
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) timestampNanoStr() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
