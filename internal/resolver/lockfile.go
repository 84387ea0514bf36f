// Package resolver turns Cargo projects and crate archives into the package
// identities the analyser consumes.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"verax/internal/veracity/models"
)

// Source values marking packages that come from the default registry. Older
// lockfiles carry the git index URL, newer ones the sparse protocol.
const (
	cratesIndexSource = "registry+https://github.com/rust-lang/crates.io-index"
	sparseIndexSource = "sparse+https://index.crates.io/"
)

type lockfileDoc struct {
	Packages []lockedPackage `toml:"package"`
}

type lockedPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  string `toml:"source"`
}

// ParseLockfile extracts the registry packages from Cargo.lock contents.
// Workspace members, git and path dependencies carry a different source and
// are skipped.
func ParseLockfile(data []byte) ([]models.Package, error) {
	var doc lockfileDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lockfile: %w", err)
	}

	packages := make([]models.Package, 0, len(doc.Packages))
	for _, locked := range doc.Packages {
		if locked.Source != cratesIndexSource && locked.Source != sparseIndexSource {
			continue
		}
		pkg, err := models.NewPackage(locked.Name, locked.Version)
		if err != nil {
			return nil, fmt.Errorf("lockfile entry %s@%s: %w", locked.Name, locked.Version, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// Project resolves the locked dependencies of a Cargo project directory.
type Project struct {
	logger *slog.Logger
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProjectOption {
	return func(p *Project) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProject creates a project resolver.
func NewProject(opts ...ProjectOption) *Project {
	p := &Project{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the registry packages locked by the project at dir. When
// the project has no Cargo.lock yet, cargo generates one first.
func (p *Project) Resolve(ctx context.Context, dir string) ([]models.Package, error) {
	lockPath := filepath.Join(dir, "Cargo.lock")

	data, err := os.ReadFile(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.InfoContext(ctx, "no lockfile found, generating one", "dir", dir)
		if err := p.generateLockfile(ctx, dir); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(lockPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", lockPath, err)
	}

	packages, err := ParseLockfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lockPath, err)
	}
	p.logger.DebugContext(ctx, "resolved project dependencies",
		"dir", dir,
		"packages", len(packages),
	)
	return packages, nil
}

func (p *Project) generateLockfile(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "cargo", "update", "--workspace")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("generate lockfile with cargo: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}
