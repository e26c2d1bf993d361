// Package api holds the OpenAPI document for the HTTP surface.
package api

import _ "embed"

// OpenAPI is the bundled OpenAPI 3 document in YAML.
//
//go:embed openapi.yaml
var OpenAPI []byte
