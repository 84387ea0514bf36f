// Package inquiry measures how far trusted publishing and reproducible
// builds have spread across the registry's most downloaded crates.
package inquiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"verax/internal/veracity/models"
)

// Coverage selects how many of the registry's most downloaded crates an
// inquiry samples.
type Coverage string

const (
	CoverageSmall  Coverage = "small"
	CoverageMedium Coverage = "medium"
	CoverageLarge  Coverage = "large"
	CoverageHuge   Coverage = "huge"
)

// ErrUnknownCoverage indicates a coverage tier outside the known set.
var ErrUnknownCoverage = errors.New("unknown coverage tier")

// Limit returns the sample size of the tier, or 0 for an unknown tier.
func (c Coverage) Limit() int {
	switch c {
	case CoverageSmall:
		return 50
	case CoverageMedium:
		return 100
	case CoverageLarge:
		return 250
	case CoverageHuge:
		return 500
	default:
		return 0
	}
}

// ParseCoverage validates a coverage tier name.
func ParseCoverage(value string) (Coverage, error) {
	coverage := Coverage(value)
	if coverage.Limit() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownCoverage, value)
	}
	return coverage, nil
}

// Coverages lists the valid tier names for help text.
func Coverages() []string {
	return []string{
		string(CoverageSmall),
		string(CoverageMedium),
		string(CoverageLarge),
		string(CoverageHuge),
	}
}

// Results summarises one ecosystem inquiry. Presence percentages are over
// TotalInquired, so failed evaluations drag them down rather than being
// silently excluded.
type Results struct {
	Coverage                  Coverage
	TotalInquired             int
	WithProvenance            int
	WithReproducibility       int
	PresenceOfProvenance      float64
	PresenceOfReproducibility float64
	Outcomes                  []models.Outcome
}

// Catalogue lists the registry's most downloaded crates.
type Catalogue interface {
	MostDownloaded(ctx context.Context, limit int) ([]models.Package, error)
}

// Evaluator runs one batch evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, packages []models.Package) (models.Results, error)
}

// Service runs ecosystem inquiries.
type Service struct {
	catalogue Catalogue
	evaluator Evaluator
	logger    *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an inquiry service.
func New(catalogue Catalogue, evaluator Evaluator, opts ...Option) (*Service, error) {
	if catalogue == nil {
		return nil, errors.New("catalogue is required")
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	s := &Service{
		catalogue: catalogue,
		evaluator: evaluator,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Inquire samples the most downloaded crates at the given coverage and
// evaluates their veracity.
func (s *Service) Inquire(ctx context.Context, coverage Coverage) (Results, error) {
	limit := coverage.Limit()
	if limit == 0 {
		return Results{}, fmt.Errorf("%w: %q", ErrUnknownCoverage, coverage)
	}

	packages, err := s.catalogue.MostDownloaded(ctx, limit)
	if err != nil {
		return Results{}, fmt.Errorf("list most downloaded crates: %w", err)
	}
	s.logger.InfoContext(ctx, "starting ecosystem inquiry",
		"coverage", string(coverage),
		"crates", len(packages),
	)

	batch, err := s.evaluator.Evaluate(ctx, packages)
	if err != nil {
		return Results{}, fmt.Errorf("evaluate inquiry batch: %w", err)
	}

	stats := batch.Statistics
	return Results{
		Coverage:                  coverage,
		TotalInquired:             stats.Total,
		WithProvenance:            stats.ProvenanceAttested,
		WithReproducibility:       stats.ReproducibleBuilds,
		PresenceOfProvenance:      percentage(stats.ProvenanceAttested, stats.Total),
		PresenceOfReproducibility: percentage(stats.ReproducibleBuilds, stats.Total),
		Outcomes:                  batch.Outcomes,
	}, nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
