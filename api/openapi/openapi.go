// Package openapi renders the tinker-voice OpenAPI document without
// starting a server.
package openapi

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"

	"github.com/bledden/tinker-voice/internal/api"
	"github.com/bledden/tinker-voice/internal/app"
)

// Document registers every route against unwired services and returns the
// resulting OpenAPI description.
func Document(version string) *huma.OpenAPI {
	humaAPI := humaecho.New(echo.New(), api.NewAPIConfig(version))
	api.Register(humaAPI, &app.Services{})
	return humaAPI.OpenAPI()
}

// Write encodes the document for version as "json" or "yaml".
func Write(w io.Writer, version, format string) error {
	doc := Document(version)

	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
		out = append(out, '\n')
	case "yaml":
		out, err = doc.YAML()
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
	if err != nil {
		return fmt.Errorf("encoding openapi %s: %w", format, err)
	}

	_, err = w.Write(out)
	return err
}
