package http_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/smarttrack/internal/adapters/http"
)

const minimalSpec = `openapi: 3.0.3
info:
  title: Staging Tracker
  version: 0.0.1
paths: {}
`

func docsApp(t *testing.T, opts handler.DocsOptions) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	if err := handler.SetupDocs(app, opts); err != nil {
		t.Fatalf("SetupDocs: %v", err)
	}
	return app
}

func fetchDoc(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestDocs_BundledDocument(t *testing.T) {
	app := docsApp(t, handler.DocsOptions{})

	status, page := fetchDoc(t, app, "/docs")
	if status != 200 || !strings.Contains(page, "<title>SmartTrack API: Swagger UI</title>") {
		t.Errorf("unexpected docs page %d: %s", status, page)
	}

	status, body := fetchDoc(t, app, "/docs/openapi.json")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Paths["/v1/boundaries"]; !ok {
		t.Error("bundled document is missing /v1/boundaries")
	}
}

func TestDocs_ConfiguredSpecPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(minimalSpec), 0o600); err != nil {
		t.Fatal(err)
	}
	app := docsApp(t, handler.DocsOptions{SpecPath: path, Title: "Ops <Console>"})

	_, page := fetchDoc(t, app, "/docs")
	if !strings.Contains(page, "Ops &lt;Console&gt;: Swagger UI") {
		t.Errorf("title not applied or not escaped: %s", page)
	}
	_, body := fetchDoc(t, app, "/docs/openapi.yaml")
	if body != minimalSpec {
		t.Errorf("expected configured document, got %q", body)
	}
}

func TestDocs_RejectsBadDocument(t *testing.T) {
	app := fiber.New()
	if err := handler.SetupDocs(app, handler.DocsOptions{SpecPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected error for missing document")
	}

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	_ = os.WriteFile(path, []byte("openapi: 3.0.3\ninfo: {}\npaths: {}\n"), 0o600)
	if err := handler.SetupDocs(app, handler.DocsOptions{SpecPath: path}); err == nil {
		t.Error("expected validation error for a document without title and version")
	}
}

func TestDocs_Disabled(t *testing.T) {
	app := docsApp(t, handler.DocsOptions{Disabled: true})
	if status, _ := fetchDoc(t, app, "/docs"); status != 404 {
		t.Errorf("expected 404 when docs are disabled, got %d", status)
	}
}
