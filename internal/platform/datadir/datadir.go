// Package datadir resolves the tool's on-disk home and its cleanup scopes.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scope selects what Clean removes.
type Scope string

const (
	ScopeEverything     Scope = "everything"
	ScopeAnalysedData   Scope = "analysed-data"
	ScopePackageSources Scope = "package-sources"
)

// Scopes lists the valid cleanup scopes, for help text.
func Scopes() []Scope {
	return []Scope{ScopeEverything, ScopeAnalysedData, ScopePackageSources}
}

// ParseScope validates a scope argument.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeEverything, ScopeAnalysedData, ScopePackageSources:
		return Scope(raw), nil
	default:
		return "", fmt.Errorf("unknown cleanup scope %q", raw)
	}
}

// Dirs locates everything the tool keeps on disk.
type Dirs struct {
	root string
}

// New resolves the data home, defaulting to ~/.verax.
func New(root string) (Dirs, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Dirs{}, fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, ".verax")
	}
	return Dirs{root: root}, nil
}

// Root returns the data home.
func (d Dirs) Root() string { return d.root }

// Analysis returns the checks cache root.
func (d Dirs) Analysis() string { return filepath.Join(d.root, "analysis") }

// Downloads returns the crate extraction root.
func (d Dirs) Downloads() string { return filepath.Join(d.root, "downloads") }

// Clean removes the data selected by scope.
func (d Dirs) Clean(scope Scope) error {
	switch scope {
	case ScopeEverything:
		return os.RemoveAll(d.root)
	case ScopeAnalysedData:
		return os.RemoveAll(d.Analysis())
	case ScopePackageSources:
		return os.RemoveAll(d.Downloads())
	default:
		return fmt.Errorf("unknown cleanup scope %q", scope)
	}
}
