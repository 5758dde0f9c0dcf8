package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

// StreamAnalysisEvents streams progress events as Server-Sent Events until
// the run completes or the client goes away. A finished analysis gets a
// single synthetic complete event.
func (s *Server) StreamAnalysisEvents(ctx echo.Context, id string) error {
	analysis, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	if analysis.Status == models.AnalysisDone || analysis.Status == models.AnalysisError {
		status := workflow.StatusDone
		if analysis.Status == models.AnalysisError {
			status = workflow.StatusError
		}
		at := s.now().UTC()
		if analysis.CompletedAt != nil {
			at = *analysis.CompletedAt
		}
		return writeEvent(w, workflow.Event{
			AnalysisID: analysis.ID,
			Stage:      workflow.StageComplete,
			Status:     status,
			Percent:    100,
			At:         at,
		})
	}

	sub := s.hub.Subscribe(analysis.ID)
	defer sub.Close()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, ev); err != nil {
				s.logger.Warn("event stream write failed", "analysis_id", analysis.ID, "error", err)
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, ev workflow.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
