package frontend

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jo-hoe/goclipart/internal/artwork"
	"github.com/jo-hoe/goclipart/internal/core"
	"github.com/labstack/echo/v4"
)

const testRoot = "/home/learner/Activities"

func newTestServer(t *testing.T) (*echo.Echo, *core.CoreService) {
	t.Helper()
	return newTestServerWithDecoder(t, nil)
}

func newTestServerWithDecoder(t *testing.T, decoder artwork.Decoder) (*echo.Echo, *core.CoreService) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	fs := memfs.New()
	if err := util.WriteFile(fs, testRoot+"/Paint/bar.png", buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	cfg := core.DefaultConfig()
	cfg.ActivitiesRoot = testRoot
	cfg.ThumbnailSize = 16
	cfg.Journal = core.Journal{Type: "sqlite", ConnectionString: ":memory:"}

	svc, err := core.NewCoreService(cfg, core.Dependencies{Filesystem: fs, Decoder: decoder})
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		<-svc.Done()
		_ = svc.Close()
	})

	e := echo.New()
	NewFrontendService(cfg, svc).SetRoutes(e)
	return e, svc
}

func waitPopulated(t *testing.T, svc *core.CoreService) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v, err := svc.View(context.Background())
		if err != nil {
			t.Fatalf("View error: %v", err)
		}
		if v.Populated {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("gallery was not populated in time")
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirect(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMovedPermanently)
	}
	if loc := rec.Header().Get("Location"); loc != "/"+MainPageName {
		t.Errorf("Location = %q", loc)
	}
}

func TestIndexShowsAlertAndDisabledSave(t *testing.T) {
	e, svc := newTestServer(t)
	waitPopulated(t, svc)

	rec := do(e, http.MethodGet, "/"+MainPageName)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Scanning for clipart") {
		t.Error("expected the scanning alert on the main page")
	}
	if !strings.Contains(body, "Save to Journal</button>") || !strings.Contains(body, " disabled>") {
		t.Error("expected a disabled save button")
	}
}

func TestGalleryAndThumbnail(t *testing.T) {
	e, svc := newTestServer(t)
	waitPopulated(t, svc)

	rec := do(e, http.MethodGet, "/htmx/gallery")
	if rec.Code != http.StatusOK {
		t.Fatalf("gallery status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `alt="bar.png"`) {
		t.Errorf("gallery does not list bar.png: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/htmx/thumbnail/0")
	if rec.Code != http.StatusOK {
		t.Fatalf("thumbnail status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != mimePNG {
		t.Errorf("Content-Type = %q, want %q", ct, mimePNG)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("thumbnail is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("thumbnail bounds = %v, want 16x16", b)
	}

	if rec := do(e, http.MethodGet, "/htmx/thumbnail/7"); rec.Code != http.StatusNotFound {
		t.Errorf("missing thumbnail status = %d, want 404", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/htmx/thumbnail/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid index status = %d, want 400", rec.Code)
	}
}

func TestSelectSaveFlow(t *testing.T) {
	e, svc := newTestServer(t)
	waitPopulated(t, svc)

	rec := do(e, http.MethodPost, "/htmx/select/0")
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `hx-post="/htmx/deselect"`) {
		t.Error("selected item should offer deselect")
	}
	if strings.Contains(body, " disabled>") {
		t.Error("save should be enabled after a selection")
	}

	rec = do(e, http.MethodPost, "/htmx/save")
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}
	body = rec.Body.String()
	if !strings.Contains(body, "Saved bar.png to the Journal.") {
		t.Errorf("unexpected save response: %s", body)
	}
	if !strings.Contains(body, " disabled>") {
		t.Error("save should be disabled after saving")
	}

	entries, err := svc.JournalEntries(context.Background())
	if err != nil {
		t.Fatalf("JournalEntries error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title() != "bar" {
		t.Errorf("journal entries = %+v, want one entry titled bar", entries)
	}

	// a second click is a no-op
	rec = do(e, http.MethodPost, "/htmx/save")
	if strings.Contains(rec.Body.String(), "Saved") {
		t.Error("second save should not write again")
	}
}

func TestDeselectDisablesSave(t *testing.T) {
	e, svc := newTestServer(t)
	waitPopulated(t, svc)

	do(e, http.MethodPost, "/htmx/select/0")
	rec := do(e, http.MethodPost, "/htmx/deselect")
	if rec.Code != http.StatusOK {
		t.Fatalf("deselect status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), " disabled>") {
		t.Error("save should be disabled after deselecting")
	}
}

func TestDismissAlert(t *testing.T) {
	e, svc := newTestServer(t)
	waitPopulated(t, svc)

	rec := do(e, http.MethodPost, "/htmx/alert/dismiss")
	if rec.Code != http.StatusOK {
		t.Fatalf("dismiss status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Scanning for clipart") {
		t.Error("alert should be gone after dismissing")
	}

	v, err := svc.View(context.Background())
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
	if v.AlertVisible {
		t.Error("AlertVisible should be false")
	}
}

func TestIcon(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/icon.svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
}

type stalledDecoder struct {
	release chan struct{}
}

func (d stalledDecoder) Decode(path string, size int) (image.Image, error) {
	<-d.release
	return image.NewRGBA(image.Rect(0, 0, size, size)), nil
}

func TestPagesRenderWhileScanning(t *testing.T) {
	decoder := stalledDecoder{release: make(chan struct{})}
	e, svc := newTestServerWithDecoder(t, decoder)
	defer close(decoder.release)

	rec := do(e, http.MethodGet, "/"+MainPageName)
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Scanning for clipart") {
		t.Error("expected the scanning alert while the scan is running")
	}

	rec = do(e, http.MethodGet, "/htmx/gallery")
	if rec.Code != http.StatusOK {
		t.Fatalf("gallery status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hx-trigger="every 1s"`) {
		t.Errorf("gallery should keep polling while scanning: %s", rec.Body.String())
	}

	v, err := svc.View(context.Background())
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
	if v.Populated {
		t.Error("gallery populated before the decoder was released")
	}
}
