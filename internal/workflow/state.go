// Package workflow runs the fixed analysis graph over an immutable state
// snapshot: Parse, then Rights, Market and News in parallel, then Valuation
// and Report.
package workflow

import (
	"context"

	"auction-analyzer/backend/pkg/models"
)

// State is an immutable snapshot of a workflow run. It is only ever advanced
// through Merge.
type State struct {
	AnalysisID   string
	FilePaths    []string
	Registry     *models.Registry
	Appraisal    *models.Appraisal
	SaleItem     *models.SaleItem
	StatusReport *models.StatusReport
	Rights       *models.RightsAnalysis
	Market       *models.MarketData
	News         *models.NewsAnalysis
	Valuation    *models.Valuation
	Report       *models.Report
	Errors       []string
}

// NewState creates the initial snapshot for a run.
func NewState(analysisID string, filePaths []string) State {
	return State{
		AnalysisID: analysisID,
		FilePaths:  append([]string(nil), filePaths...),
	}
}

// Update is the partial result of one stage. Nil fields are left untouched
// by Merge; Errors are appended.
type Update struct {
	Registry     *models.Registry
	Appraisal    *models.Appraisal
	SaleItem     *models.SaleItem
	StatusReport *models.StatusReport
	Rights       *models.RightsAnalysis
	Market       *models.MarketData
	News         *models.NewsAnalysis
	Valuation    *models.Valuation
	Report       *models.Report
	Errors       []string
}

// Merge returns a new snapshot with u applied. Object fields replace and
// the error list concatenates; s itself is not modified.
func (s State) Merge(u Update) State {
	next := s
	next.Registry = pick(s.Registry, u.Registry)
	next.Appraisal = pick(s.Appraisal, u.Appraisal)
	next.SaleItem = pick(s.SaleItem, u.SaleItem)
	next.StatusReport = pick(s.StatusReport, u.StatusReport)
	next.Rights = pick(s.Rights, u.Rights)
	next.Market = pick(s.Market, u.Market)
	next.News = pick(s.News, u.News)
	next.Valuation = pick(s.Valuation, u.Valuation)
	next.Report = pick(s.Report, u.Report)
	next.Errors = concat(s.Errors, u.Errors)
	return next
}

func pick[T any](cur, upd *T) *T {
	if upd != nil {
		return upd
	}
	return cur
}

func concat(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// StageFunc computes one stage's partial update from the current snapshot.
type StageFunc func(ctx context.Context, s State) (Update, error)

// Stages binds the fixed graph positions to their implementations.
type Stages struct {
	Parse     StageFunc
	Rights    StageFunc
	Market    StageFunc
	News      StageFunc
	Valuation StageFunc
	Report    StageFunc
}

// Stage names as they appear in progress events and error strings.
const (
	StageParse     = "document_parser"
	StageRights    = "rights_analysis"
	StageMarket    = "market_data"
	StageNews      = "news_analysis"
	StageValuation = "valuation"
	StageReport    = "report_generator"

	// StageComplete marks the final event of a run, sent once the result has
	// been persisted.
	StageComplete = "complete"
)
