// Package coordinator fans a batch of packages out across concurrent
// analyser calls and aggregates the per-package outcomes into one result.
//
// A Coordinator is single use: one batch, one aggregation, then discarded.
// Failures local to one package become nil-checks outcomes and never abort
// sibling evaluations; only the aggregate deadline fails a batch as a whole.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"verax/internal/veracity/metrics"
	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
	"verax/pkg/platform/audit"
)

var tracer = otel.Tracer("verax.coordinator")

// DefaultPerPackageBudget is the wall-clock share one package contributes to
// the aggregate deadline. A batch waits at most budget x 2 x batch size, the
// factor of two covering the two veracity factors.
const DefaultPerPackageBudget = 60 * time.Second

var (
	// ErrDeadlineExceeded reports that a batch did not finish within its
	// aggregate deadline. In-flight evaluations are abandoned, not cancelled.
	ErrDeadlineExceeded = errors.New("batch deadline exceeded")

	// ErrAlreadyUsed reports a second Evaluate call on the same instance.
	ErrAlreadyUsed = errors.New("coordinator instance already used")
)

// Coordinator drives one batch evaluation.
type Coordinator struct {
	analysis ports.Analysis
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
	budget   time.Duration

	used atomic.Bool

	mu       sync.Mutex
	outcomes []models.Outcome
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithAuditor enables the audit trail for the run. Emission is fail-open:
// a broken trail is logged and never fails the batch.
func WithAuditor(auditor audit.Emitter) Option {
	return func(c *Coordinator) {
		c.auditor = auditor
	}
}

// WithPerPackageBudget overrides DefaultPerPackageBudget.
func WithPerPackageBudget(budget time.Duration) Option {
	return func(c *Coordinator) {
		if budget > 0 {
			c.budget = budget
		}
	}
}

// New creates a coordinator for a single batch.
func New(analysis ports.Analysis, opts ...Option) (*Coordinator, error) {
	if analysis == nil {
		return nil, errors.New("analysis is required")
	}

	c := &Coordinator{
		analysis: analysis,
		logger:   slog.New(slog.DiscardHandler),
		budget:   DefaultPerPackageBudget,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Evaluate runs every package through the analyser concurrently and returns
// the aggregated results. Outcomes land in completion order, not submission
// order. The wait is bounded by the aggregate deadline; on expiry the batch
// fails as a whole and work still in flight keeps running detached, its
// results never collected.
func (c *Coordinator) Evaluate(ctx context.Context, packages []models.Package) (models.Results, error) {
	if !c.used.CompareAndSwap(false, true) {
		return models.Results{}, ErrAlreadyUsed
	}

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "coordinator.Evaluate", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("batch_size", len(packages)),
	))
	defer span.End()

	if len(packages) == 0 {
		return models.Aggregate(nil), nil
	}

	start := time.Now()
	c.logger.InfoContext(ctx, "starting batch evaluation",
		"run_id", runID,
		"batch_size", len(packages),
	)

	var wg sync.WaitGroup
	for _, pkg := range packages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.evaluate(ctx, runID, pkg)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	deadline := c.budget * 2 * time.Duration(len(packages))
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		landed := c.landed()
		err := fmt.Errorf("%w: %d of %d packages unfinished after %s",
			ErrDeadlineExceeded, len(packages)-landed, len(packages), deadline)
		span.RecordError(err)
		span.SetStatus(codes.Error, "deadline exceeded")
		c.logger.ErrorContext(ctx, "batch evaluation timed out",
			"run_id", runID,
			"deadline", deadline,
			"landed", landed,
		)
		return models.Results{}, err
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "context cancelled")
		return models.Results{}, ctx.Err()
	}

	c.mu.Lock()
	outcomes := make([]models.Outcome, len(c.outcomes))
	copy(outcomes, c.outcomes)
	c.mu.Unlock()

	results := models.Aggregate(outcomes)
	elapsed := time.Since(start)
	c.metrics.ObserveBatchDuration(elapsed)
	c.audit(ctx, audit.Event{
		RunID:  runID,
		Action: audit.ActionBatchCompleted,
	})
	c.logger.InfoContext(ctx, "batch evaluation complete",
		"run_id", runID,
		"total", results.Statistics.Total,
		"provenance_attested", results.Statistics.ProvenanceAttested,
		"reproducible_builds", results.Statistics.ReproducibleBuilds,
		"duration", elapsed,
	)
	return results, nil
}

// evaluate analyses one package and appends its outcome. An analyser error
// is converted into a nil-checks outcome at this boundary.
func (c *Coordinator) evaluate(ctx context.Context, runID string, pkg models.Package) {
	ctx, span := tracer.Start(ctx, "coordinator.evaluatePackage",
		trace.WithAttributes(attribute.String("package", pkg.Purl())))
	defer span.End()

	result, err := c.analysis.Analyse(ctx, pkg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		c.logger.WarnContext(ctx, "package evaluation failed",
			"run_id", runID,
			"package", pkg.Purl(),
			"error", err,
		)
		c.metrics.IncrementOutcome("failed")
		c.append(models.Outcome{Package: pkg})
		c.audit(ctx, audit.Event{
			RunID:   runID,
			Action:  audit.ActionPackageAnalysed,
			Package: pkg.Purl(),
			Outcome: audit.OutcomeFailed,
		})
		return
	}

	c.metrics.IncrementOutcome("evaluated")
	c.append(models.Outcome{Package: pkg, Checks: &result})
	c.audit(ctx, audit.Event{
		RunID:   runID,
		Action:  audit.ActionPackageAnalysed,
		Package: pkg.Purl(),
		Level:   result.Level().String(),
		Outcome: audit.OutcomeAnalysed,
	})
}

func (c *Coordinator) append(outcome models.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *Coordinator) landed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

func (c *Coordinator) audit(ctx context.Context, event audit.Event) {
	if c.auditor == nil {
		return
	}
	if err := c.auditor.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"run_id", event.RunID,
			"error", err,
		)
	}
}
