package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"auction-analyzer/backend/internal/auth"
	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/pkg/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	heartbeatPeriod  = 15 * time.Second
)

var allowedExtensions = map[string]bool{".pdf": true, ".txt": true}

// Server implements ServerInterface over the analysis service.
type Server struct {
	service      AnalysisService
	hub          ProgressHub
	logger       Logger
	uploadDir    string
	maxFileBytes int64
	heartbeat    time.Duration
	now          func() time.Time
}

// NewServer creates a new Server. Uploaded files are stored under
// uploadDir and rejected above maxFileMB megabytes.
func NewServer(service AnalysisService, hub ProgressHub, logger Logger, uploadDir string, maxFileMB int64) *Server {
	return &Server{
		service:      service,
		hub:          hub,
		logger:       logger,
		uploadDir:    uploadDir,
		maxFileBytes: maxFileMB << 20,
		heartbeat:    heartbeatPeriod,
		now:          time.Now,
	}
}

// StatusResponse is the lightweight progress view of an analysis.
type StatusResponse struct {
	ID          string                `json:"id"`
	CaseNumber  string                `json:"case_number,omitempty"`
	Status      models.AnalysisStatus `json:"status"`
	Errors      []string              `json:"errors"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// ListResponse wraps a page of analyses.
type ListResponse struct {
	Analyses []*models.Analysis `json:"analyses"`
	Count    int                `json:"count"`
}

func owner(ctx echo.Context) (string, error) {
	o, ok := auth.OwnerFrom(ctx.Request().Context())
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return o, nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis id")
	}
	return nil
}

func (s *Server) lookup(ctx echo.Context, id string) (*models.Analysis, error) {
	_, analysis, err := s.ownedAnalysis(ctx, id)
	return analysis, err
}

func (s *Server) ownedAnalysis(ctx echo.Context, id string) (string, *models.Analysis, error) {
	o, err := owner(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := validID(id); err != nil {
		return "", nil, err
	}
	analysis, err := s.service.Get(ctx.Request().Context(), o, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return o, analysis, nil
}

// CreateAnalysis stores the uploaded documents and starts a background run.
func (s *Server) CreateAnalysis(ctx echo.Context) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form with files is required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one file is required")
	}
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExtensions[ext] {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", fh.Filename))
		}
		if s.maxFileBytes > 0 && fh.Size > s.maxFileBytes {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file too large: %s", fh.Filename))
		}
	}

	dir := filepath.Join(s.uploadDir, uuid.New().String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	paths := make([]string, 0, len(files))
	for i, fh := range files {
		name := fmt.Sprintf("%02d_%s", i, filepath.Base(fh.Filename))
		dst := filepath.Join(dir, name)
		if err := saveUpload(fh, dst); err != nil {
			_ = os.RemoveAll(dir)
			return err
		}
		paths = append(paths, dst)
	}

	analysis, err := s.service.Create(ctx.Request().Context(), o, paths)
	if err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	s.service.Start(ctx.Request().Context(), analysis)
	s.logger.Info("analysis started", "analysis_id", analysis.ID, "owner", o, "files", len(paths))

	return ctx.JSON(http.StatusAccepted, analysis)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}

// ListAnalyses returns the caller's most recent analyses.
func (s *Server) ListAnalyses(ctx echo.Context, params ListAnalysesParams) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	limit := defaultListLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit < 1 || limit > maxListLimit {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
	}

	analyses, err := s.service.List(ctx.Request().Context(), o, limit)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Analyses: analyses, Count: len(analyses)})
}

// GetAnalysis returns the full analysis record.
func (s *Server) GetAnalysis(ctx echo.Context, id string) error {
	analysis, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, analysis)
}

// GetAnalysisStatus returns the status view of an analysis.
func (s *Server) GetAnalysisStatus(ctx echo.Context, id string) error {
	analysis, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	errs := analysis.Errors
	if errs == nil {
		errs = []string{}
	}
	return ctx.JSON(http.StatusOK, StatusResponse{
		ID:          analysis.ID,
		CaseNumber:  analysis.CaseNumber,
		Status:      analysis.Status,
		Errors:      errs,
		CreatedAt:   analysis.CreatedAt,
		StartedAt:   analysis.StartedAt,
		CompletedAt: analysis.CompletedAt,
	})
}

// GetAnalysisReport returns the stored report, or 409 while none exists.
func (s *Server) GetAnalysisReport(ctx echo.Context, id string) error {
	analysis, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if len(analysis.Report) == 0 {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("report not available (status %s)", analysis.Status))
	}
	return ctx.JSONBlob(http.StatusOK, analysis.Report)
}

// DeleteAnalysis removes the record and its uploaded files.
func (s *Server) DeleteAnalysis(ctx echo.Context, id string) error {
	o, analysis, err := s.ownedAnalysis(ctx, id)
	if err != nil {
		return err
	}
	if err := s.service.Delete(ctx.Request().Context(), o, analysis.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
		}
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	s.hub.Forget(analysis.ID)
	s.removeUploads(analysis.FilePaths)

	return ctx.NoContent(http.StatusNoContent)
}

// removeUploads deletes files that live under the upload dir, then their
// batch directories once empty.
func (s *Server) removeUploads(paths []string) {
	root, err := filepath.Abs(s.uploadDir)
	if err != nil {
		return
	}
	dirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
			continue
		}
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload", "path", abs, "error", err)
		}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if d != root {
			_ = os.Remove(d)
		}
	}
}
