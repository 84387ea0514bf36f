// Package analyser produces the veracity checks for one package at a time,
// deciding from the cached level which factors still need to be probed.
package analyser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"verax/internal/veracity/metrics"
	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
)

// Metric label values for the two factors.
const (
	factorProvenance      = "provenance"
	factorReproducibility = "reproducibility"
)

// Service combines the two factor checks and the checks store behind one
// Analyse operation.
//
// The re-check policy is asymmetric on purpose. Provenance is a point-in-time
// fact fixed when the version was published: once absent it can never appear,
// so it is only ever probed once. Reproducibility is back-filled continuously
// by an external rebuild pipeline, so its absence is provisional and is
// re-probed until evidence shows up. Consequently a package's level only ever
// moves upward, and cached evidence is never cleared.
type Service struct {
	store           ports.ChecksStore
	provenance      ports.FactorCheck
	reproducibility ports.FactorCheck
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

var _ ports.Analysis = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates an analyser over the given store and factor checks.
func New(store ports.ChecksStore, provenance, reproducibility ports.FactorCheck, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("analyser: checks store is required")
	}
	if provenance == nil {
		return nil, errors.New("analyser: provenance check is required")
	}
	if reproducibility == nil {
		return nil, errors.New("analyser: reproducibility check is required")
	}

	s := &Service{
		store:           store,
		provenance:      provenance,
		reproducibility: reproducibility,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Analyse returns the veracity checks for pkg.
//
// A package never seen before has both factors checked and the result
// persisted. A cached package has only its reproducibility re-probed, and
// only while that factor is still absent; a cached level of reproducible-only
// or two-factors is returned as-is with no network calls. If a re-check
// fails, the last-known cached checks are returned rather than an error, so a
// transient outage never makes a previously verified package look failed.
func (s *Service) Analyse(ctx context.Context, pkg models.Package) (models.Checks, error) {
	cached, err := s.store.Find(ctx, pkg)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			return models.Checks{}, fmt.Errorf("find cached checks for %s: %w", pkg, err)
		}
		s.metrics.IncrementCacheLookup("miss")
		return s.analyseFresh(ctx, pkg)
	}

	s.metrics.IncrementCacheLookup("hit")
	return s.recheck(ctx, pkg, cached)
}

// analyseFresh probes both factors concurrently and persists the result.
// Each factor is checked exactly once; any check failure fails the analysis
// before anything is cached.
func (s *Service) analyseFresh(ctx context.Context, pkg models.Package) (models.Checks, error) {
	g, ctx := errgroup.WithContext(ctx)

	var checks models.Checks

	g.Go(func() error {
		evidence, err := s.checkFactor(ctx, s.provenance, factorProvenance, pkg)
		if err != nil {
			return err
		}
		checks.ProvenanceEvidence = evidence
		return nil
	})

	g.Go(func() error {
		evidence, err := s.checkFactor(ctx, s.reproducibility, factorReproducibility, pkg)
		if err != nil {
			return err
		}
		checks.ReproducibilityEvidence = evidence
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Checks{}, fmt.Errorf("analyse %s: %w", pkg, err)
	}

	if err := s.store.Save(ctx, pkg, checks); err != nil {
		return models.Checks{}, fmt.Errorf("persist checks for %s: %w", pkg, err)
	}

	s.logger.DebugContext(ctx, "analysed package",
		slog.String("package", pkg.Purl()),
		slog.String("level", checks.Level().String()),
	)
	return checks, nil
}

// recheck re-probes reproducibility while it is still absent. Cached levels
// where reproducibility is already evidenced are stable and returned without
// any network call.
func (s *Service) recheck(ctx context.Context, pkg models.Package, cached models.Checks) (models.Checks, error) {
	if cached.HasReproducibility() {
		return cached, nil
	}

	evidence, err := s.checkFactor(ctx, s.reproducibility, factorReproducibility, pkg)
	if err != nil {
		s.metrics.IncrementFallback()
		s.logger.WarnContext(ctx, "reproducibility re-check failed, keeping cached checks",
			slog.String("package", pkg.Purl()),
			slog.String("level", cached.Level().String()),
			slog.String("error", err.Error()),
		)
		return cached, nil
	}
	if evidence == "" {
		return cached, nil
	}

	updated := cached.WithReproducibility(evidence)
	if err := s.store.Save(ctx, pkg, updated); err != nil {
		// The evidence is fresher than the cache; hand it back anyway and
		// let a later run persist the promotion.
		s.logger.WarnContext(ctx, "failed to persist promoted checks",
			slog.String("package", pkg.Purl()),
			slog.String("error", err.Error()),
		)
		return updated, nil
	}

	s.logger.InfoContext(ctx, "promoted package level",
		slog.String("package", pkg.Purl()),
		slog.String("from", cached.Level().String()),
		slog.String("to", updated.Level().String()),
	)
	return updated, nil
}

// checkFactor runs one factor check with latency and result metrics.
func (s *Service) checkFactor(ctx context.Context, check ports.FactorCheck, factor string, pkg models.Package) (string, error) {
	start := time.Now()
	evidence, err := check.Check(ctx, pkg)
	s.metrics.ObserveFactorLatency(factor, time.Since(start))

	switch {
	case err != nil:
		s.metrics.IncrementFactorResult(factor, "error")
	case evidence == "":
		s.metrics.IncrementFactorResult(factor, "absent")
	default:
		s.metrics.IncrementFactorResult(factor, "present")
	}
	return evidence, err
}
