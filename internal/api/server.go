package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ListAnalysesParams defines parameters for ListAnalyses.
type ListAnalysesParams struct {
	// Limit caps the number of analyses returned.
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /healthz)
	GetHealth(ctx echo.Context) error
	// (GET /api/v1/analyses)
	ListAnalyses(ctx echo.Context, params ListAnalysesParams) error
	// (POST /api/v1/analyses)
	CreateAnalysis(ctx echo.Context) error
	// (GET /api/v1/analyses/{id})
	GetAnalysis(ctx echo.Context, id string) error
	// (DELETE /api/v1/analyses/{id})
	DeleteAnalysis(ctx echo.Context, id string) error
	// (GET /api/v1/analyses/{id}/status)
	GetAnalysisStatus(ctx echo.Context, id string) error
	// (GET /api/v1/analyses/{id}/report)
	GetAnalysisReport(ctx echo.Context, id string) error
	// (GET /api/v1/analyses/{id}/events)
	StreamAnalysisEvents(ctx echo.Context, id string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// GetHealth converts echo context to params.
func (w *ServerInterfaceWrapper) GetHealth(ctx echo.Context) error {
	return w.Handler.GetHealth(ctx)
}

// ListAnalyses converts echo context to params.
func (w *ServerInterfaceWrapper) ListAnalyses(ctx echo.Context) error {
	var params ListAnalysesParams

	err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter limit: "+err.Error())
	}

	return w.Handler.ListAnalyses(ctx, params)
}

// CreateAnalysis converts echo context to params.
func (w *ServerInterfaceWrapper) CreateAnalysis(ctx echo.Context) error {
	return w.Handler.CreateAnalysis(ctx)
}

func bindID(ctx echo.Context) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter id: "+err.Error())
	}
	return id, nil
}

// GetAnalysis converts echo context to params.
func (w *ServerInterfaceWrapper) GetAnalysis(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetAnalysis(ctx, id)
}

// DeleteAnalysis converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteAnalysis(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteAnalysis(ctx, id)
}

// GetAnalysisStatus converts echo context to params.
func (w *ServerInterfaceWrapper) GetAnalysisStatus(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetAnalysisStatus(ctx, id)
}

// GetAnalysisReport converts echo context to params.
func (w *ServerInterfaceWrapper) GetAnalysisReport(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetAnalysisReport(ctx, id)
}

// StreamAnalysisEvents converts echo context to params.
func (w *ServerInterfaceWrapper) StreamAnalysisEvents(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.StreamAnalysisEvents(ctx, id)
}

// EchoRouter is the subset of echo.Echo and echo.Group used for routing.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each analysis route to the router. Routes are
// relative to the router, which is normally the /api/v1 group.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET("/analyses", wrapper.ListAnalyses)
	router.POST("/analyses", wrapper.CreateAnalysis)
	router.GET("/analyses/:id", wrapper.GetAnalysis)
	router.DELETE("/analyses/:id", wrapper.DeleteAnalysis)
	router.GET("/analyses/:id/status", wrapper.GetAnalysisStatus)
	router.GET("/analyses/:id/report", wrapper.GetAnalysisReport)
	router.GET("/analyses/:id/events", wrapper.StreamAnalysisEvents)
}

// RegisterPublic adds the unauthenticated health and OpenAPI routes.
func RegisterPublic(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}
	router.GET("/healthz", wrapper.GetHealth)
	router.GET("/openapi.yaml", SpecHandler)
}
