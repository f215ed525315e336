// Package api carries the OpenAPI description of the HTTP API so binaries can
// serve it without reading from the working directory.
package api

import _ "embed"

// OpenAPI is the contents of openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
