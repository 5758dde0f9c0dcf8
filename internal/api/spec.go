package api

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openAPISpec []byte

// SpecHandler serves the OpenAPI document of the REST API.
func SpecHandler(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, "application/yaml", openAPISpec)
}
