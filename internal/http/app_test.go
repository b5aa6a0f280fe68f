package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"bookfolio/internal/config"
	"bookfolio/internal/http/handlers"
	"bookfolio/internal/repos"
	"bookfolio/internal/services"
)

// testConfig mirrors the production defaults with an in-memory database.
func testConfig() config.Config {
	return config.Config{
		DBDSN:        ":memory:",
		Expand:       config.ExpandAllEnglish,
		Removal:      config.RemoveDelete,
		SaveDelay:    config.MinSaveDelay,
		StorageQuota: config.DefaultQuotaSize,
	}
}

// newApp wires the real routes over a fresh registry seeded with the sample set.
func newApp(t *testing.T, cfg config.Config) (*fiber.App, *services.Registry) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	slots := repos.NewSlotRepo(db, cfg.StorageQuota)
	reg := services.NewRegistry(slots, services.NewExpander(cfg.Expand), cfg.Removal, cfg.SaveDelay)
	reg.Load()
	t.Cleanup(reg.Close)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, BodyLimit: 8 << 20})
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 1000, Expiration: time.Minute}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	deps := handlers.NewDeps(reg, slots, cfg)
	app.Get("/", deps.GalleryHandler.Home)
	app.Get("/market/:code", deps.GalleryHandler.Market)
	app.Post("/books", deps.BookHandler.Add)
	app.Post("/books/:id", deps.BookHandler.Update)
	app.Post("/books/:id/status", deps.BookHandler.ToggleStatus)
	app.Post("/groups/:gid/delete", deps.BookHandler.DeleteGroup)
	app.Get("/cover/:id", deps.CoverHandler.Serve)
	app.Get("/healthz", deps.HealthHandler.Check)
	api := app.Group("/api/v1")
	api.Get("/books", deps.APIHandler.List)
	api.Get("/books/:id", deps.APIHandler.Get)
	return app, reg
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// csrfToken performs a GET so the middleware issues a token cookie.
func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/market/us", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// postForm sends an url-encoded form with the csrf token attached.
func postForm(t *testing.T, app *fiber.App, path, tok string, form url.Values) *http.Response {
	t.Helper()
	if tok != "" {
		form.Set("csrf", tok)
	}
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// postMultipart sends fields plus an optional cover file.
func postMultipart(t *testing.T, app *fiber.App, path, tok string, fields map[string]string, cover []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("csrf", tok)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if cover != nil {
		fw, err := w.CreateFormFile("cover", "cover.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(cover)
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

// pngBytes is enough of a PNG for content sniffing.
func pngBytes(extra string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), extra...)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
