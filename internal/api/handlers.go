package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auction-analyzer/backend/internal/progress"
	"auction-analyzer/backend/pkg/models"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// AnalysisService is the analysis lifecycle used by the handlers.
type AnalysisService interface {
	Create(ctx context.Context, owner string, filePaths []string) (*models.Analysis, error)
	Start(ctx context.Context, analysis *models.Analysis)
	Get(ctx context.Context, owner, id string) (*models.Analysis, error)
	List(ctx context.Context, owner string, limit int) ([]*models.Analysis, error)
	Delete(ctx context.Context, owner, id string) error
}

// ProgressHub streams run events to clients.
type ProgressHub interface {
	Subscribe(analysisID string) progress.Subscription
	Forget(analysisID string)
}

// Logger is the logging surface used by the handlers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// GetHealth returns basic health status (always returns 200 OK)
func (s *Server) GetHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: s.now().UTC(),
		Service:   "auction-analyzer",
		Version:   Version,
	})
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// ErrorHandler renders every handler error as RFC 7807 Problem Details.
// Errors that are not *echo.HTTPError become a 500 without leaking detail.
func ErrorHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		detail := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			} else {
				detail = http.StatusText(status)
			}
		} else if logger != nil {
			logger.Error("unhandled request error", "path", c.Request().URL.Path, "error", err)
		}

		problem := ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: c.Request().URL.Path,
		}
		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		if err := c.JSON(status, problem); err != nil && logger != nil {
			logger.Warn("failed to write error response", "error", err)
		}
	}
}
