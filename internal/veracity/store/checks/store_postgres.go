package checks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
)

// PostgresStore is a Postgres-backed checks store for long-lived shared
// deployments. One row per package version; saves upsert so checks can only
// be extended.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed checks store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("checks: database handle is required")
	}
	return &PostgresStore{db: db}, nil
}

// EnsureSchema creates the checks table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS veracity_checks (
			name            TEXT NOT NULL,
			version         TEXT NOT NULL,
			crate_purl      TEXT NOT NULL,
			provenance      TEXT NOT NULL DEFAULT '',
			reproducibility TEXT NOT NULL DEFAULT '',
			checked_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (name, version)
		)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create veracity_checks table: %w", err)
	}
	return nil
}

// Find retrieves the cached checks for pkg.
// Returns ports.ErrNotFound if no row exists.
func (s *PostgresStore) Find(ctx context.Context, pkg models.Package) (models.Checks, error) {
	const query = `
		SELECT provenance, reproducibility
		FROM veracity_checks
		WHERE name = $1 AND version = $2`

	var checks models.Checks
	err := s.db.QueryRowContext(ctx, query, pkg.Name, pkg.Version).
		Scan(&checks.ProvenanceEvidence, &checks.ReproducibilityEvidence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Checks{}, ports.ErrNotFound
		}
		return models.Checks{}, fmt.Errorf("query checks for %s: %w", pkg, err)
	}
	return checks, nil
}

// Save upserts the checks row for pkg.
func (s *PostgresStore) Save(ctx context.Context, pkg models.Package, checks models.Checks) error {
	const query = `
		INSERT INTO veracity_checks (name, version, crate_purl, provenance, reproducibility)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, version) DO UPDATE SET
			provenance      = EXCLUDED.provenance,
			reproducibility = EXCLUDED.reproducibility,
			checked_at      = now()`

	_, err := s.db.ExecContext(ctx, query,
		pkg.Name, pkg.Version, pkg.Purl(),
		checks.ProvenanceEvidence, checks.ReproducibilityEvidence,
	)
	if err != nil {
		return fmt.Errorf("upsert checks for %s: %w", pkg, err)
	}
	return nil
}
