package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "auction-analyzer/backend/internal/workflow"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// RunnerConfig bounds the retry behaviour of a Runner.
type RunnerConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRunnerConfig is three attempts starting at one second.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second}
}

// Runner executes a single stage with bounded retry and absorbs the final
// failure into the error list.
type Runner struct {
	cfg    RunnerConfig
	logger Logger
	tracer trace.Tracer

	attempts metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRunner creates a Runner. Non-positive settings fall back to the defaults.
func NewRunner(cfg RunnerConfig, logger Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	meter := otel.Meter(instrumentationName)
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}
	var err error
	if r.attempts, err = meter.Int64Counter("workflow.stage.attempts",
		metric.WithDescription("Stage attempts including retries")); err != nil {
		logger.Warn("failed to create metric", "name", "workflow.stage.attempts", "error", err)
	}
	if r.failures, err = meter.Int64Counter("workflow.stage.failures",
		metric.WithDescription("Stages that exhausted their retry budget")); err != nil {
		logger.Warn("failed to create metric", "name", "workflow.stage.failures", "error", err)
	}
	if r.duration, err = meter.Float64Histogram("workflow.stage.duration",
		metric.WithUnit("s"), metric.WithDescription("Wall time per stage")); err != nil {
		logger.Warn("failed to create metric", "name", "workflow.stage.duration", "error", err)
	}
	return r
}

func (r *Runner) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.cfg.InitialBackoff
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = r.cfg.MaxBackoff
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.cfg.MaxAttempts-1)), ctx)
}

// Run executes fn against s. On success the stage's update is returned.
// When every attempt fails, or the error is permanent, the returned update
// carries exactly one "<stage> failed: <cause>" entry and no results; the
// error is returned alongside for status reporting only.
func (r *Runner) Run(ctx context.Context, stage string, fn StageFunc, s State) (Update, error) {
	ctx, span := r.tracer.Start(ctx, "stage."+stage,
		trace.WithAttributes(attribute.String("analysis.id", s.AnalysisID)))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("stage", stage))
	start := time.Now()
	defer func() {
		if r.duration != nil {
			r.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	}()

	if fn == nil {
		fn = func(context.Context, State) (Update, error) {
			return Update{}, fmt.Errorf("stage not configured: %w", ErrDataUnavailable)
		}
	}

	var (
		out     Update
		attempt int
	)
	op := func() error {
		attempt++
		if r.attempts != nil {
			r.attempts.Add(ctx, 1, attrs)
		}
		u, err := invoke(ctx, fn, s)
		if err != nil {
			r.logger.Warn("stage attempt failed", "stage", stage, "attempt", attempt, "error", err)
			if IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = u
		return nil
	}

	err := backoff.Retry(op, r.newBackOff(ctx))
	if err == nil {
		span.SetAttributes(attribute.Int("stage.attempts", attempt))
		return out, nil
	}

	if r.failures != nil {
		r.failures.Add(ctx, 1, attrs)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.Error("stage failed", "stage", stage, "attempts", attempt, "error", err)
	return Update{Errors: []string{fmt.Sprintf("%s failed: %v", stage, err)}}, err
}

// invoke calls fn and turns a panic into an error so that a misbehaving
// stage is absorbed like any other failure.
func invoke(ctx context.Context, fn StageFunc, s State) (u Update, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, s)
}
