// Package models holds the domain vocabulary of veracity analysis: package
// identities, evidenced checks, the level projection that drives re-checking,
// and the aggregate result types handed back to callers.
//
// Everything here is a pure value type with no I/O. Identities are comparable
// and safe to use as map keys.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// purlPrefix is the canonical package-URL prefix for the cargo ecosystem.
const purlPrefix = "pkg:cargo/"

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

var (
	// ErrInvalidName indicates a crate name that the registry would reject.
	ErrInvalidName = errors.New("invalid crate name: must be 1-64 alphanumeric, '-' or '_' characters")

	// ErrInvalidVersion indicates a version string that is not valid semver.
	ErrInvalidVersion = errors.New("invalid crate version: not a semantic version")

	// ErrInvalidPurl indicates a package URL outside the pkg:cargo namespace
	// or missing its version component.
	ErrInvalidPurl = errors.New("invalid package URL: expected pkg:cargo/<name>@<version>")
)

// Package identifies one published crate version. It is immutable, comparable
// and globally unique per (name, version) pair; the pair is the unit of both
// caching and concurrency.
type Package struct {
	Name    string
	Version string
}

// NewPackage creates a validated Package.
func NewPackage(name, version string) (Package, error) {
	if !namePattern.MatchString(name) {
		return Package{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, err := semver.NewVersion(version); err != nil {
		return Package{}, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return Package{Name: name, Version: version}, nil
}

// MustPackage creates a Package, panicking if invalid.
// Use only in tests or with known-good literals.
func MustPackage(name, version string) Package {
	pkg, err := NewPackage(name, version)
	if err != nil {
		panic(err)
	}
	return pkg
}

// ParsePurl parses a canonical package URL of the form
// pkg:cargo/<name>@<version> into a validated Package.
func ParsePurl(purl string) (Package, error) {
	rest, ok := strings.CutPrefix(purl, purlPrefix)
	if !ok {
		return Package{}, fmt.Errorf("%w: %q", ErrInvalidPurl, purl)
	}
	name, version, ok := strings.Cut(rest, "@")
	if !ok || name == "" || version == "" {
		return Package{}, fmt.Errorf("%w: %q", ErrInvalidPurl, purl)
	}
	return NewPackage(name, version)
}

// Purl returns the canonical package-URL form, pkg:cargo/<name>@<version>.
func (p Package) Purl() string {
	return purlPrefix + p.Name + "@" + p.Version
}

// String implements fmt.Stringer using the canonical purl form.
func (p Package) String() string {
	return p.Purl()
}

// IsZero returns true if this is the zero value (uninitialized).
func (p Package) IsZero() bool {
	return p.Name == "" && p.Version == ""
}
