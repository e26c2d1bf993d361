package http

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/smarttrack/api"
)

// DocsOptions control the API documentation routes.
type DocsOptions struct {
	Disabled bool
	// SpecPath overrides the bundled OpenAPI document.
	SpecPath string
	// Title overrides the document's info.title on the Swagger UI page.
	Title string
}

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}: Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`))

type apiDocs struct {
	yaml []byte
	json []byte
	page []byte
}

func loadDocs(ctx context.Context, opts DocsOptions) (*apiDocs, error) {
	data := api.OpenAPI
	if opts.SpecPath != "" {
		var err error
		if data, err = os.ReadFile(opts.SpecPath); err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	jsonDoc, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" && doc.Info != nil {
		title = doc.Info.Title
	}
	var page strings.Builder
	if err := swaggerPage.Execute(&page, struct{ Title string }{title}); err != nil {
		return nil, err
	}
	return &apiDocs{yaml: data, json: jsonDoc, page: []byte(page.String())}, nil
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI document at
// /docs/openapi.yaml and /docs/openapi.json. The document is parsed and
// validated once, up front.
func SetupDocs(app *fiber.App, opts DocsOptions) error {
	if opts.Disabled {
		return nil
	}
	docs, err := loadDocs(context.Background(), opts)
	if err != nil {
		return err
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Send(docs.page)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "application/yaml")
		return c.Send(docs.yaml)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		c.Set("Content-Type", fiber.MIMEApplicationJSON)
		return c.Send(docs.json)
	})
	slog.Debug("api docs mounted", "custom_spec", opts.SpecPath != "")
	return nil
}
