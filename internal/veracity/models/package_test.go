package models_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"verax/internal/veracity/models"
)

type PackageSuite struct {
	suite.Suite
}

func TestPackageSuite(t *testing.T) {
	suite.Run(t, new(PackageSuite))
}

func (s *PackageSuite) TestNewPackage() {
	s.Run("accepts a regular crate", func() {
		pkg, err := models.NewPackage("serde", "1.0.219")
		s.Require().NoError(err)
		s.Equal("serde", pkg.Name)
		s.Equal("1.0.219", pkg.Version)
	})

	s.Run("accepts hyphens and underscores", func() {
		_, err := models.NewPackage("proc-macro2", "1.0.94")
		s.Require().NoError(err)
		_, err = models.NewPackage("serde_json", "1.0.140")
		s.Require().NoError(err)
	})

	s.Run("accepts pre-release versions", func() {
		_, err := models.NewPackage("tokio", "1.0.0-alpha.1")
		s.Require().NoError(err)
	})

	s.Run("rejects an empty name", func() {
		_, err := models.NewPackage("", "1.0.0")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidName)
	})

	s.Run("rejects names with path separators", func() {
		_, err := models.NewPackage("../escape", "1.0.0")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidName)
	})

	s.Run("rejects a non-semver version", func() {
		_, err := models.NewPackage("serde", "not-a-version")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidVersion)
	})
}

func (s *PackageSuite) TestMustPackage() {
	s.Run("panics on invalid input", func() {
		s.Panics(func() {
			models.MustPackage("serde", "nope")
		})
	})

	s.Run("returns the package on valid input", func() {
		s.NotPanics(func() {
			pkg := models.MustPackage("anyhow", "1.0.98")
			s.Equal("anyhow", pkg.Name)
		})
	})
}

func (s *PackageSuite) TestPurlRoundTrip() {
	s.Run("formats the canonical purl", func() {
		pkg := models.MustPackage("rustls", "0.23.27")
		s.Equal("pkg:cargo/rustls@0.23.27", pkg.Purl())
		s.Equal(pkg.Purl(), pkg.String())
	})

	s.Run("parses its own output", func() {
		pkg := models.MustPackage("serde_json", "1.0.140")
		parsed, err := models.ParsePurl(pkg.Purl())
		s.Require().NoError(err)
		s.Equal(pkg, parsed)
	})
}

func (s *PackageSuite) TestParsePurl() {
	s.Run("rejects other ecosystems", func() {
		_, err := models.ParsePurl("pkg:npm/left-pad@1.3.0")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidPurl)
	})

	s.Run("rejects a missing version", func() {
		_, err := models.ParsePurl("pkg:cargo/serde")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidPurl)
	})

	s.Run("rejects a bare string", func() {
		_, err := models.ParsePurl("serde@1.0.219")
		s.Require().Error(err)
		s.ErrorIs(err, models.ErrInvalidPurl)
	})
}

func (s *PackageSuite) TestIdentitySemantics() {
	s.Run("equal pairs compare equal", func() {
		s.Equal(models.MustPackage("serde", "1.0.219"), models.MustPackage("serde", "1.0.219"))
	})

	s.Run("usable as a map key", func() {
		seen := map[models.Package]bool{}
		seen[models.MustPackage("serde", "1.0.219")] = true
		s.True(seen[models.MustPackage("serde", "1.0.219")])
		s.False(seen[models.MustPackage("serde", "1.0.218")])
	})

	s.Run("zero value is zero", func() {
		var pkg models.Package
		s.True(pkg.IsZero())
		s.False(models.MustPackage("serde", "1.0.219").IsZero())
	})
}
