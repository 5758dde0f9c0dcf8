package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

// Executor runs the stage graph over an initial snapshot.
type Executor interface {
	Execute(ctx context.Context, initial workflow.State) workflow.State
}

// Logger is the logging surface used by AnalysisService.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AnalysisService is a service for managing analysis runs.
type AnalysisService struct {
	store    repository.AnalysisStore
	executor Executor
	notifier workflow.Notifier
	logger   Logger
	now      func() time.Time
}

// NewAnalysisService creates a new AnalysisService. notifier receives the
// terminal event of every run and may be nil.
func NewAnalysisService(store repository.AnalysisStore, executor Executor, notifier workflow.Notifier, logger Logger) *AnalysisService {
	if notifier == nil {
		notifier = workflow.NotifierFunc(func(context.Context, workflow.Event) {})
	}
	return &AnalysisService{
		store:    store,
		executor: executor,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create records a pending analysis over the given files.
func (s *AnalysisService) Create(ctx context.Context, owner string, filePaths []string) (*models.Analysis, error) {
	analysis := &models.Analysis{
		ID:        uuid.New().String(),
		Owner:     owner,
		Status:    models.AnalysisPending,
		FilePaths: append([]string(nil), filePaths...),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	return analysis, nil
}

// Start runs the analysis in the background. The run outlives ctx's
// cancellation but keeps its values.
func (s *AnalysisService) Start(ctx context.Context, analysis *models.Analysis) {
	runCtx := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.Execute(runCtx, analysis); err != nil {
			s.logger.Error("analysis run failed", "analysis_id", analysis.ID, "error", err)
		}
	}()
}

// Execute runs the workflow synchronously and persists its result. The
// returned record carries the terminal status. Every call ends with a
// complete event, including runs that fail to persist.
func (s *AnalysisService) Execute(ctx context.Context, analysis *models.Analysis) (*models.Analysis, error) {
	if err := s.store.MarkRunning(ctx, analysis.ID); err != nil {
		err = fmt.Errorf("failed to mark analysis running: %w", err)
		s.fail(ctx, analysis, err)
		return nil, err
	}
	started := s.now().UTC()

	final := s.executor.Execute(ctx, workflow.NewState(analysis.ID, analysis.FilePaths))

	result, err := Record(analysis, final)
	if err != nil {
		s.fail(ctx, analysis, err)
		return nil, err
	}
	result.StartedAt = &started
	completed := s.now().UTC()
	result.CompletedAt = &completed

	if err := s.store.SaveResult(ctx, result); err != nil {
		err = fmt.Errorf("failed to save analysis result: %w", err)
		s.fail(ctx, analysis, err)
		return nil, err
	}
	s.logger.Info("analysis finished", "analysis_id", result.ID, "status", result.Status, "errors", len(result.Errors))

	status := workflow.StatusDone
	if result.Status == models.AnalysisError {
		status = workflow.StatusError
	}
	s.complete(ctx, result.ID, status, completed)

	return result, nil
}

// fail stores analysis as errored with cause and ends its event stream. A
// record that no longer exists is not written.
func (s *AnalysisService) fail(ctx context.Context, analysis *models.Analysis, cause error) {
	s.logger.Error("analysis run aborted", "analysis_id", analysis.ID, "error", cause)

	completed := s.now().UTC()
	failed := *analysis
	failed.Status = models.AnalysisError
	failed.Errors = append(append([]string(nil), analysis.Errors...), cause.Error())
	failed.CompletedAt = &completed

	if !errors.Is(cause, repository.ErrNotFound) {
		if err := s.store.SaveResult(ctx, &failed); err != nil {
			s.logger.Error("failed to mark analysis failed", "analysis_id", analysis.ID, "error", err)
		}
	}
	s.complete(ctx, analysis.ID, workflow.StatusError, completed)
}

func (s *AnalysisService) complete(ctx context.Context, id string, status workflow.Status, at time.Time) {
	s.notifier.Notify(ctx, workflow.Event{
		AnalysisID: id,
		Stage:      workflow.StageComplete,
		Status:     status,
		Percent:    100,
		At:         at,
	})
}

// Record copies a terminal snapshot into a copy of analysis. The status is
// done when a report exists and error otherwise.
func Record(analysis *models.Analysis, final workflow.State) (*models.Analysis, error) {
	out := *analysis
	out.Errors = append([]string(nil), final.Errors...)

	if final.Report != nil {
		out.Status = models.AnalysisDone
	} else {
		out.Status = models.AnalysisError
	}

	documents := map[string]any{}
	if final.Registry != nil {
		documents[string(models.DocumentRegistry)] = final.Registry
	}
	if final.Appraisal != nil {
		documents[string(models.DocumentAppraisal)] = final.Appraisal
	}
	if final.SaleItem != nil {
		documents[string(models.DocumentSaleItem)] = final.SaleItem
		out.CaseNumber = final.SaleItem.CaseNumber
	}
	if final.StatusReport != nil {
		documents[string(models.DocumentStatusReport)] = final.StatusReport
	}

	var err error
	if len(documents) > 0 {
		if out.Documents, err = json.Marshal(documents); err != nil {
			return nil, fmt.Errorf("failed to encode documents: %w", err)
		}
	}
	if out.Rights, err = marshalOptional(final.Rights); err != nil {
		return nil, err
	}
	if out.Market, err = marshalOptional(final.Market); err != nil {
		return nil, err
	}
	if out.News, err = marshalOptional(final.News); err != nil {
		return nil, err
	}
	if out.Valuation, err = marshalOptional(final.Valuation); err != nil {
		return nil, err
	}
	if out.Report, err = marshalOptional(final.Report); err != nil {
		return nil, err
	}

	if final.Rights != nil {
		out.RiskLevel = string(final.Rights.RiskLevel)
	}
	if final.Valuation != nil {
		out.Recommendation = string(final.Valuation.Recommendation)
		roi := final.Valuation.ExpectedROI
		out.ExpectedROI = &roi
	}

	return &out, nil
}

func marshalOptional[T any](v *T) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return b, nil
}

// Get returns one of owner's analyses.
func (s *AnalysisService) Get(ctx context.Context, owner, id string) (*models.Analysis, error) {
	return s.store.Get(ctx, owner, id)
}

// List returns owner's most recent analyses.
func (s *AnalysisService) List(ctx context.Context, owner string, limit int) ([]*models.Analysis, error) {
	return s.store.List(ctx, owner, limit)
}

// Delete removes one of owner's analyses.
func (s *AnalysisService) Delete(ctx context.Context, owner, id string) error {
	return s.store.Delete(ctx, owner, id)
}
