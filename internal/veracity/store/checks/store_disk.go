// Package checks provides the persistence backends for veracity checks:
// a JSON directory store (the default), an in-memory store, and Redis and
// Postgres stores for shared deployments. All of them implement
// ports.ChecksStore and report misses as ports.ErrNotFound.
package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
)

const checksFileName = "checks.json"

// record is the serialized form shared by the disk and Redis stores.
type record struct {
	CratePurl       string `json:"crate_purl"`
	Provenance      string `json:"provenance,omitempty"`
	Reproducibility string `json:"reproducibility,omitempty"`
}

func recordFrom(pkg models.Package, checks models.Checks) record {
	return record{
		CratePurl:       pkg.Purl(),
		Provenance:      checks.ProvenanceEvidence,
		Reproducibility: checks.ReproducibilityEvidence,
	}
}

func (r record) checks() models.Checks {
	return models.Checks{
		ProvenanceEvidence:      r.Provenance,
		ReproducibilityEvidence: r.Reproducibility,
	}
}

// DiskStore persists one JSON document per package version at
// <root>/<name>/<version>/checks.json. Directories are created on first
// write; a missing file is a miss, a file that fails to parse is a hard
// error.
type DiskStore struct {
	root string
}

// NewDiskStore creates a checks store rooted at the given directory.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("checks: root directory is required")
	}
	return &DiskStore{root: root}, nil
}

// Find reads the cached checks for pkg, returning ports.ErrNotFound when no
// document exists yet.
func (s *DiskStore) Find(_ context.Context, pkg models.Package) (models.Checks, error) {
	data, err := os.ReadFile(s.path(pkg))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Checks{}, ports.ErrNotFound
		}
		return models.Checks{}, fmt.Errorf("read checks for %s: %w", pkg, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Checks{}, fmt.Errorf("decode checks for %s: %w", pkg, err)
	}
	return rec.checks(), nil
}

// Save writes the checks document for pkg, creating the package directory as
// needed.
func (s *DiskStore) Save(_ context.Context, pkg models.Package, checks models.Checks) error {
	dir := filepath.Dir(s.path(pkg))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checks directory for %s: %w", pkg, err)
	}

	data, err := json.MarshalIndent(recordFrom(pkg, checks), "", "  ")
	if err != nil {
		return fmt.Errorf("encode checks for %s: %w", pkg, err)
	}
	if err := os.WriteFile(s.path(pkg), data, 0o644); err != nil {
		return fmt.Errorf("write checks for %s: %w", pkg, err)
	}
	return nil
}

// path is deterministic per identity; Package name validation keeps the
// components free of separators.
func (s *DiskStore) path(pkg models.Package) string {
	return filepath.Join(s.root, pkg.Name, pkg.Version, checksFileName)
}
