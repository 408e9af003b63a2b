package reflection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reflectd/pkg/llm"
)

const tracerName = "github.com/fyrsmithlabs/reflectd/pkg/reflection"
const meterName = "reflection"

// Engine orchestrates the draft, critique, revision pipeline over one
// completion capability.
//
// An engine owns the history of its last successful run. Overlapping
// GenerateText calls on the same engine are serialized; use one engine
// per concurrent pipeline.
type Engine struct {
	completer   llm.Completer
	logger      *zap.Logger
	callTimeout time.Duration

	// runMu enforces the single-writer constraint on history.
	runMu sync.Mutex

	histMu  sync.RWMutex
	history []string

	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	runCounter    metric.Int64Counter
	runDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
	stageErrors   metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCallTimeout bounds each of the three completion calls with its own
// deadline. Zero leaves cancellation to the caller's context alone.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.callTimeout = d
	}
}

// NewEngine creates an engine bound to the provider described by cfg.
// The system message frames every completion call the engine makes.
//
// Configuration problems surface llm.ErrInvalidConfig before any network
// call; provider client construction failures wrap llm.ErrProviderInit.
func NewEngine(ctx context.Context, cfg llm.Config, systemMessage string, opts ...Option) (*Engine, error) {
	completer, err := llm.NewCompleter(ctx, cfg, systemMessage)
	if err != nil {
		return nil, err
	}
	return NewEngineWithCompleter(completer, opts...)
}

// NewEngineWithCompleter creates an engine over an existing completion
// capability. This is the injection point for tests and for servers that
// share one provider client across engines.
func NewEngineWithCompleter(completer llm.Completer, opts ...Option) (*Engine, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}

	e := &Engine{
		completer: completer,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		meter:     otel.Meter(meterName),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return e, nil
}

// GenerateText runs the three-stage reflection pipeline for the given
// prompt template and criteria, and returns the revised text.
//
// The three completion calls are strictly sequential; no stage starts
// before the previous one returns. On success the engine's history is
// replaced with the run's [draft, critique, revision]. On failure a
// *StageError naming the failed stage is returned and the history keeps
// its previous contents; a partial run is never visible.
//
// Criteria are optional. An empty slice switches the critique stage to
// self-defined reflection points; it is a first-class mode, not an error.
func (e *Engine) GenerateText(ctx context.Context, prompt PromptTemplate, criteria []string) (string, error) {
	if err := prompt.Validate(); err != nil {
		return "", fmt.Errorf("validating prompt: %w", err)
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "reflection.generate",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("criteria_count", len(criteria)),
		),
	)
	defer span.End()

	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("starting reflection run",
		zap.Int("criteria_count", len(criteria)),
		zap.Int("prompt_length", len(prompt.Render())))

	start := time.Now()

	draft, err := e.completeStage(ctx, StageDraft, prompt.Render())
	if err != nil {
		return "", e.failRun(ctx, span, logger, start, err)
	}

	critique, err := e.completeStage(ctx, StageCritique, critiquePrompt(prompt.Persona, prompt.Task, draft, criteria))
	if err != nil {
		return "", e.failRun(ctx, span, logger, start, err)
	}

	revision, err := e.completeStage(ctx, StageRevision, revisionPrompt(prompt.Task, draft, critique, criteria))
	if err != nil {
		return "", e.failRun(ctx, span, logger, start, err)
	}

	e.histMu.Lock()
	e.history = []string{draft, critique, revision}
	e.histMu.Unlock()

	elapsed := time.Since(start)
	e.runCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", "success")))
	e.runDuration.Record(ctx, elapsed.Seconds())
	span.SetAttributes(attribute.Float64("duration_s", elapsed.Seconds()))

	logger.Info("reflection run complete",
		zap.Duration("duration", elapsed),
		zap.Int("result_length", len(revision)))

	return revision, nil
}

// History returns the outputs of the last successful run in order:
// draft, critique, revision. Empty before the first successful run.
// Each successful run replaces the previous three entries.
//
// The returned slice is a copy; mutating it does not affect the engine.
func (e *Engine) History() []string {
	e.histMu.RLock()
	defer e.histMu.RUnlock()

	out := make([]string, len(e.history))
	copy(out, e.history)
	return out
}

// completeStage performs one completion call under its own span and,
// when configured, its own timeout. Failures and empty results come back
// as *StageError.
func (e *Engine) completeStage(ctx context.Context, stage Stage, prompt string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "reflection."+string(stage),
		trace.WithAttributes(attribute.Int("prompt_length", len(prompt))),
	)
	defer span.End()

	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := e.completer.Complete(ctx, prompt)
	e.stageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", string(stage))))

	if err == nil && text == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		span.RecordError(err)
		e.stageErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("stage", string(stage))))
		return "", &StageError{Stage: stage, Err: err}
	}

	span.SetAttributes(attribute.Int("result_length", len(text)))
	return text, nil
}

// failRun records a failed pipeline run. History is left untouched.
func (e *Engine) failRun(ctx context.Context, span trace.Span, logger *zap.Logger, start time.Time, err error) error {
	span.RecordError(err)
	e.runCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", "error")))
	e.runDuration.Record(ctx, time.Since(start).Seconds())

	logger.Warn("reflection run failed", zap.Error(err))
	return err
}

// initMetrics initializes OpenTelemetry metrics.
func (e *Engine) initMetrics() error {
	var err error

	e.runCounter, err = e.meter.Int64Counter(
		"reflection.runs_total",
		metric.WithDescription("Total number of reflection runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create run counter: %w", err)
	}

	e.runDuration, err = e.meter.Float64Histogram(
		"reflection.run_duration_seconds",
		metric.WithDescription("Time spent on full reflection runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	e.stageDuration, err = e.meter.Float64Histogram(
		"reflection.stage_duration_seconds",
		metric.WithDescription("Time spent on individual pipeline stages"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	e.stageErrors, err = e.meter.Int64Counter(
		"reflection.stage_errors_total",
		metric.WithDescription("Total number of stage failures"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage errors counter: %w", err)
	}

	return nil
}
