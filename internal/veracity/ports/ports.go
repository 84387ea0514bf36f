// Package ports defines the contracts between the veracity analyser, its
// factor checkers and its persistence, so the engine stays decoupled from any
// specific registry, attestation store or cache backend.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"

	"verax/internal/veracity/models"
)

// ErrNotFound indicates a checks store has no entry for the package.
// Callers treat it as a cache miss, not a failure.
var ErrNotFound = errors.New("checks not found")

// FactorCheck asks one external authority whether evidence of one veracity
// factor exists for an exact package version.
//
// Check performs exactly one logical query per call and returns the evidence
// URL, or the empty string when the factor is not evidenced. Transport and
// parse failures surface as errors; they are never mapped to "absent", so a
// failed check can never be cached as evidence of non-trust.
type FactorCheck interface {
	Check(ctx context.Context, pkg models.Package) (evidence string, err error)
}

// ChecksStore persists the last-known checks per package version.
//
// Find returns ErrNotFound on a miss; any other error is a hard storage
// failure. Save creates or extends the entry for the package. Stores are safe
// for concurrent use on distinct packages; concurrent writes to the same
// package are last-write-wins, which is acceptable because checks only ever
// grow.
type ChecksStore interface {
	Find(ctx context.Context, pkg models.Package) (models.Checks, error)
	Save(ctx context.Context, pkg models.Package, checks models.Checks) error
}

// Analysis produces the veracity checks for one package, consulting the
// store and the factor checkers as needed.
type Analysis interface {
	Analyse(ctx context.Context, pkg models.Package) (models.Checks, error)
}
