// Package app wires the analysis workflow from configuration.
package app

import (
	"auction-analyzer/backend/internal/config"
	"auction-analyzer/backend/internal/logging"
	"auction-analyzer/backend/internal/market"
	"auction-analyzer/backend/internal/rights"
	"auction-analyzer/backend/internal/services"
	"auction-analyzer/backend/internal/stages"
	"auction-analyzer/backend/internal/valuation"
	"auction-analyzer/backend/internal/workflow"
)

// NewWorkflow builds the orchestrator and its collaborators. Market and news
// collection are left out when their credentials are missing, which the
// stages report as unavailable data.
func NewWorkflow(cfg *config.Config, logger *logging.Logger, notifier workflow.Notifier) *workflow.Orchestrator {
	llm := services.NewInferenceClient(cfg.Inference.BaseURL, cfg.Inference.APIKey, cfg.Inference.Model, cfg.Inference.Timeout)
	if cfg.Inference.APIKey == "" {
		logger.Warn("inference api key not configured, LLM-backed stages will fail")
	}

	deps := stages.Deps{
		Extractor: services.NewPDFExtractor(),
		LLM:       llm,
		Rights:    rights.NewEngine(cfg.Workflow.SmallDepositThreshold, stages.NewRiskAdvisor(llm, cfg.Inference.MaxTokens)),
		Valuation: valuation.NewEngine(cfg.Workflow.HoldingMonths),
		Logger:    logger.With("component", "stages"),
		MaxTokens: cfg.Inference.MaxTokens,
	}

	if cfg.Molit.APIKey != "" {
		source := services.NewMolitClient(cfg.Molit.BaseURL, cfg.Molit.APIKey)
		deps.Market = market.NewCollector(source, cfg.Workflow.TradeMonths, cfg.Workflow.RentMonths, logger.With("component", "market"))
	} else {
		logger.Warn("molit api key not configured, market data disabled")
	}

	if cfg.Naver.ClientID != "" {
		deps.News = services.NewNaverNewsClient(cfg.Naver.BaseURL, cfg.Naver.ClientID, cfg.Naver.ClientSecret)
	} else {
		logger.Warn("naver credentials not configured, news analysis disabled")
	}

	runner := workflow.NewRunner(workflow.RunnerConfig{
		MaxAttempts:    cfg.Workflow.MaxAttempts,
		InitialBackoff: cfg.Workflow.InitialBackoff,
		MaxBackoff:     cfg.Workflow.MaxBackoff,
	}, logger.With("component", "runner"))

	analyzer := stages.NewAnalyzer(deps)
	return workflow.NewOrchestrator(runner, analyzer.Stages(), notifier, logger.With("component", "orchestrator"))
}
