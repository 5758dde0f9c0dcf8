// Package stages binds the domain engines and the external collaborators
// into the workflow's stage functions.
package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-analyzer/backend/internal/market"
	"auction-analyzer/backend/internal/news"
	"auction-analyzer/backend/internal/report"
	"auction-analyzer/backend/internal/rights"
	"auction-analyzer/backend/internal/services"
	"auction-analyzer/backend/internal/valuation"
	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

const (
	minTextLength    = 50
	classifyRunes    = 2000
	classifyTokens   = 200
	defaultMaxTokens = 4096
	newsTokens       = 8192
	reportTokens     = 3000
)

// Logger is the logging surface used by the stages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Deps are the collaborators an Analyzer needs. Market and News may be nil,
// in which case those stages report their data as unavailable.
type Deps struct {
	Extractor services.Extractor
	LLM       services.Completer
	Market    *market.Collector
	News      services.NewsSource
	Rights    *rights.Engine
	Valuation *valuation.Engine
	Logger    Logger
	MaxTokens int
}

// Analyzer implements every stage of the analysis.
type Analyzer struct {
	extractor services.Extractor
	llm       services.Completer
	market    *market.Collector
	news      services.NewsSource
	rights    *rights.Engine
	valuation *valuation.Engine
	logger    Logger
	maxTokens int
	now       func() time.Time
}

// NewAnalyzer creates an Analyzer. A nil rights or valuation engine gets a
// default one; the rights engine then consults the LLM for its risk grade.
func NewAnalyzer(d Deps) *Analyzer {
	if d.MaxTokens <= 0 {
		d.MaxTokens = defaultMaxTokens
	}
	if d.Rights == nil {
		d.Rights = rights.NewEngine(0, NewRiskAdvisor(d.LLM, d.MaxTokens))
	}
	if d.Valuation == nil {
		d.Valuation = valuation.NewEngine(0)
	}
	return &Analyzer{
		extractor: d.Extractor,
		llm:       d.LLM,
		market:    d.Market,
		news:      d.News,
		rights:    d.Rights,
		valuation: d.Valuation,
		logger:    d.Logger,
		maxTokens: d.MaxTokens,
		now:       time.Now,
	}
}

// Stages returns the stage set for the orchestrator.
func (a *Analyzer) Stages() workflow.Stages {
	return workflow.Stages{
		Parse:     a.Parse,
		Rights:    a.Rights,
		Market:    a.Market,
		News:      a.News,
		Valuation: a.Valuation,
		Report:    a.Report,
	}
}

// Parse extracts, classifies and structures every input document. Problems
// with a single file are recorded as errors and never fail the stage.
func (a *Analyzer) Parse(ctx context.Context, s workflow.State) (workflow.Update, error) {
	if len(s.FilePaths) == 0 {
		return workflow.Update{}, fmt.Errorf("no input files: %w", workflow.ErrDataUnavailable)
	}

	var u workflow.Update
	for _, path := range s.FilePaths {
		if err := ctx.Err(); err != nil {
			return workflow.Update{}, err
		}
		if err := a.parseFile(ctx, path, &u); err != nil {
			a.logger.Warn("document skipped", "path", path, "error", err)
			if errors.Is(err, workflow.ErrExtractionFailed) {
				u.Errors = append(u.Errors, "text extraction failed: "+path)
				continue
			}
			u.Errors = append(u.Errors, fmt.Sprintf("document parse failed (%s): %v", path, err))
		}
	}
	return u, nil
}

func (a *Analyzer) parseFile(ctx context.Context, path string, u *workflow.Update) error {
	text, _, err := a.extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrExtractionFailed, err)
	}
	if len([]rune(strings.TrimSpace(text))) < minTextLength {
		return workflow.ErrExtractionFailed
	}

	docType, err := a.classify(ctx, text)
	if err != nil {
		return err
	}
	a.logger.Info("document classified", "path", path, "type", docType)

	switch docType {
	case models.DocumentRegistry:
		u.Registry, err = a.extractRegistry(ctx, text)
	case models.DocumentAppraisal:
		u.Appraisal, err = extract[models.Appraisal](ctx, a, "appraisal", text)
	case models.DocumentSaleItem:
		u.SaleItem, err = a.extractSaleItem(ctx, text)
	case models.DocumentStatusReport:
		u.StatusReport, err = extract[models.StatusReport](ctx, a, "status_report", text)
	case models.DocumentAuctionSummary:
		a.extractComposite(ctx, path, text, u)
	default:
		return fmt.Errorf("%w: unsupported document type %q", workflow.ErrClassificationFailed, docType)
	}
	return err
}

// extractComposite tries every extraction on a combined document; each may
// fail on its own.
func (a *Analyzer) extractComposite(ctx context.Context, path, text string, u *workflow.Update) {
	if reg, err := a.extractRegistry(ctx, text); err == nil {
		u.Registry = reg
	} else {
		a.logger.Warn("composite registry extraction failed", "path", path, "error", err)
	}
	if ap, err := extract[models.Appraisal](ctx, a, "appraisal", text); err == nil {
		u.Appraisal = ap
	} else {
		a.logger.Warn("composite appraisal extraction failed", "path", path, "error", err)
	}
	if si, err := a.extractSaleItem(ctx, text); err == nil {
		u.SaleItem = si
	} else {
		a.logger.Warn("composite sale item extraction failed", "path", path, "error", err)
	}
	if sr, err := extract[models.StatusReport](ctx, a, "status_report", text); err == nil {
		u.StatusReport = sr
	} else {
		a.logger.Warn("composite status report extraction failed", "path", path, "error", err)
	}
}

func (a *Analyzer) classify(ctx context.Context, text string) (models.DocumentType, error) {
	prompt, err := render("classify", map[string]string{"Text": head(text, classifyRunes)})
	if err != nil {
		return "", err
	}
	var out struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
	}
	if err := services.CompleteJSON(ctx, a.llm, prompt, classifyTokens, &out); err != nil {
		return "", fmt.Errorf("%w: %v", workflow.ErrClassificationFailed, err)
	}
	docType := models.DocumentType(strings.ToLower(strings.TrimSpace(out.DocumentType)))
	if docType == "" {
		return "", fmt.Errorf("%w: empty document type", workflow.ErrClassificationFailed)
	}
	return docType, nil
}

func extract[T any](ctx context.Context, a *Analyzer, kind, text string) (*T, error) {
	prompt, err := render(kind, map[string]string{"Text": text})
	if err != nil {
		return nil, err
	}
	var out T
	if err := services.CompleteJSON(ctx, a.llm, prompt, a.maxTokens, &out); err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", kind, err)
	}
	return &out, nil
}

func (a *Analyzer) extractRegistry(ctx context.Context, text string) (*models.Registry, error) {
	reg, err := extract[models.Registry](ctx, a, "registry", text)
	if err != nil {
		return nil, err
	}
	reg.Normalize()
	return reg, nil
}

func (a *Analyzer) extractSaleItem(ctx context.Context, text string) (*models.SaleItem, error) {
	si, err := extract[models.SaleItem](ctx, a, "sale_item", text)
	if err != nil {
		return nil, err
	}
	si.Normalize()
	return si, nil
}

// Rights runs the rights engine over the registry and sale item.
func (a *Analyzer) Rights(ctx context.Context, s workflow.State) (workflow.Update, error) {
	if s.Registry == nil {
		return workflow.Update{}, fmt.Errorf("registry not parsed: %w", workflow.ErrDataUnavailable)
	}
	result, err := a.rights.Analyze(ctx, s.Registry, s.SaleItem)
	if err != nil {
		return workflow.Update{}, err
	}
	a.logger.Info("rights analysed", "basis", result.ExtinguishmentBasis, "risk", result.RiskLevel, "assumed", len(result.AssumedRights))
	return workflow.Update{Rights: result}, nil
}

// Market collects recorded transactions around the property and computes
// the market statistics.
func (a *Analyzer) Market(ctx context.Context, s workflow.State) (workflow.Update, error) {
	if s.Registry == nil {
		return workflow.Update{}, fmt.Errorf("registry not parsed: %w", workflow.ErrDataUnavailable)
	}
	if a.market == nil {
		return workflow.Update{}, fmt.Errorf("no market source configured: %w", workflow.ErrDataUnavailable)
	}
	lawd, ok := market.LawdCode(s.Registry.PropertyAddress)
	if !ok {
		return workflow.Update{}, fmt.Errorf("no district code for %q: %w", s.Registry.PropertyAddress, workflow.ErrDataUnavailable)
	}

	subject := market.Subject{
		Area:         s.Registry.Area,
		Kind:         market.ResolveKind(s.Registry.PropertyType),
		BuildingName: s.Registry.BuildingName,
	}
	if subject.BuildingName == "" {
		subject.BuildingName = market.GuessBuildingName(s.Registry.PropertyAddress)
	}
	if s.Appraisal != nil {
		subject.AppraisedValue = s.Appraisal.AppraisedValue
	}

	trades, rents := a.market.Collect(ctx, lawd, subject.Kind)
	if err := ctx.Err(); err != nil {
		return workflow.Update{}, err
	}
	result := market.Analyze(trades, rents, subject)
	a.logger.Info("market analysed", "lawd_code", lawd, "kind", subject.Kind, "samples", result.SampleCount, "trend", result.Trend)
	return workflow.Update{Market: result}, nil
}

// News searches recent articles around the property and has them classified.
func (a *Analyzer) News(ctx context.Context, s workflow.State) (workflow.Update, error) {
	if s.Registry == nil {
		return workflow.Update{}, fmt.Errorf("registry not parsed: %w", workflow.ErrDataUnavailable)
	}
	if a.news == nil {
		return workflow.Update{}, fmt.Errorf("no news source configured: %w", workflow.ErrDataUnavailable)
	}

	address := s.Registry.PropertyAddress
	queries := news.GenerateQueries(address, s.Registry.BuildingName)
	var collected []models.RawNews
	failed := 0
	for _, q := range queries {
		items, err := a.news.Search(ctx, q, news.SearchDisplay)
		if err != nil {
			failed++
			a.logger.Warn("news search failed", "query", q, "error", err)
			continue
		}
		collected = append(collected, items...)
	}

	unique := news.Limit(news.Dedupe(collected))
	a.logger.Debug("news collected", "queries", len(queries), "failed", failed, "raw", len(collected), "unique", len(unique))
	if len(unique) == 0 {
		return workflow.Update{}, fmt.Errorf("no news collected for %q (%d queries): %w", address, len(queries), workflow.ErrDataUnavailable)
	}

	prompt, err := render("news", map[string]string{"Area": address, "News": news.Format(unique)})
	if err != nil {
		return workflow.Update{}, err
	}
	var verdict news.Verdict
	if err := services.CompleteJSON(ctx, a.llm, prompt, newsTokens, &verdict); err != nil {
		return workflow.Update{}, fmt.Errorf("failed to analyse news: %w", err)
	}
	return workflow.Update{News: verdict.Analysis()}, nil
}

// Valuation prices the property from whatever upstream results exist.
func (a *Analyzer) Valuation(_ context.Context, s workflow.State) (workflow.Update, error) {
	v, err := a.valuation.Evaluate(valuation.Input{
		Registry:  s.Registry,
		Appraisal: s.Appraisal,
		SaleItem:  s.SaleItem,
		Rights:    s.Rights,
		Market:    s.Market,
		News:      s.News,
	})
	if err != nil {
		return workflow.Update{}, err
	}
	return workflow.Update{Valuation: v}, nil
}

// Report assembles the final report. A failed narrative summary leaves a
// partial report and one error instead of failing the stage.
func (a *Analyzer) Report(ctx context.Context, s workflow.State) (workflow.Update, error) {
	r := report.Assemble(s.Valuation, s.Market, s.Errors, a.now())

	summary, err := a.summarize(ctx, s)
	if err != nil {
		a.logger.Warn("report summary failed", "analysis_id", s.AnalysisID, "error", err)
		r.Partial = true
		msg := fmt.Sprintf("%s failed: %v", workflow.StageReport, err)
		r.Errors = append(r.Errors, msg)
		return workflow.Update{Report: r, Errors: []string{msg}}, nil
	}
	r.Summary = summary
	return workflow.Update{Report: r}, nil
}

func (a *Analyzer) summarize(ctx context.Context, s workflow.State) (*models.ReportSummary, error) {
	prompt, err := render("report", map[string]string{
		"Rights":    report.Excerpt(s.Rights),
		"Market":    report.Excerpt(s.Market),
		"News":      report.Excerpt(s.News),
		"Valuation": report.Excerpt(s.Valuation),
	})
	if err != nil {
		return nil, err
	}
	var summary models.ReportSummary
	if err := services.CompleteJSON(ctx, a.llm, prompt, reportTokens, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// RiskAdvisor grades rights risk with the LLM.
type RiskAdvisor struct {
	llm       services.Completer
	maxTokens int
}

// NewRiskAdvisor creates a RiskAdvisor. A nil llm yields a nil advisor so
// the rights engine falls back to its own defaults.
func NewRiskAdvisor(llm services.Completer, maxTokens int) rights.RiskAdvisor {
	if llm == nil {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &RiskAdvisor{llm: llm, maxTokens: maxTokens}
}

// AssessRisk implements rights.RiskAdvisor.
func (r *RiskAdvisor) AssessRisk(ctx context.Context, brief rights.Brief) (rights.Opinion, error) {
	prompt, err := render("rights", brief)
	if err != nil {
		return rights.Opinion{}, err
	}
	var op rights.Opinion
	if err := services.CompleteJSON(ctx, r.llm, prompt, r.maxTokens, &op); err != nil {
		return rights.Opinion{}, err
	}
	return op, nil
}
