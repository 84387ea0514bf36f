package models

// Factor is one independently observable trust signal for a crate version.
type Factor string

const (
	// FactorProvenance is evidence that the version was published through an
	// attested pipeline (trusted publishing) rather than a manual upload.
	FactorProvenance Factor = "provenance-attested"

	// FactorReproducible is evidence that an independent rebuild of the
	// version reproduced the published artifact.
	FactorReproducible Factor = "reproducible-builds"
)

// Checks is the canonical per-package result: one optional evidence URL per
// factor, where the empty string means the factor is not evidenced.
//
// Evidence is non-retracting. Both facts concern a single immutable published
// version, so once a field is present it never reverts to absent; later
// analyses may only extend a Checks value, never shrink it.
type Checks struct {
	ProvenanceEvidence      string
	ReproducibilityEvidence string
}

// HasProvenance reports whether provenance evidence is present.
func (c Checks) HasProvenance() bool {
	return c.ProvenanceEvidence != ""
}

// HasReproducibility reports whether reproducibility evidence is present.
func (c Checks) HasReproducibility() bool {
	return c.ReproducibilityEvidence != ""
}

// Level projects the checks onto the four-state veracity level.
func (c Checks) Level() Level {
	return LevelFromBooleans(c.HasProvenance(), c.HasReproducibility())
}

// WithReproducibility returns a copy of c with reproducibility evidence set,
// unless c already carries some: evidence is never replaced or cleared, so
// the level rank of the result is never lower than that of c.
func (c Checks) WithReproducibility(evidence string) Checks {
	if c.HasReproducibility() {
		return c
	}
	c.ReproducibilityEvidence = evidence
	return c
}

// Level summarises which factors are evidenced. It is a lossless projection
// of the presence booleans of a Checks value; the evidence URLs themselves
// are not part of the level.
type Level int

const (
	// LevelNotAvailable means neither factor is evidenced.
	LevelNotAvailable Level = iota

	// LevelProvenanceOnly means provenance is the single evidenced factor.
	LevelProvenanceOnly

	// LevelReproducibleOnly means reproducibility is the single evidenced factor.
	LevelReproducibleOnly

	// LevelTwoFactors means both factors are evidenced. Terminal state.
	LevelTwoFactors
)

// LevelFromBooleans maps factor presence to a Level. It is the inverse of
// Level.Booleans for all four combinations.
func LevelFromBooleans(provenance, reproducibility bool) Level {
	switch {
	case provenance && reproducibility:
		return LevelTwoFactors
	case provenance:
		return LevelProvenanceOnly
	case reproducibility:
		return LevelReproducibleOnly
	default:
		return LevelNotAvailable
	}
}

// Booleans returns factor presence as (provenance, reproducibility).
func (l Level) Booleans() (provenance, reproducibility bool) {
	switch l {
	case LevelTwoFactors:
		return true, true
	case LevelProvenanceOnly:
		return true, false
	case LevelReproducibleOnly:
		return false, true
	default:
		return false, false
	}
}

// Rank orders levels by how many factors are evidenced: 0 for none, 1 for a
// single factor, 2 for both. Analysis is monotonic over this rank; a package
// re-analysed at any later time never ranks lower than its cached level.
func (l Level) Rank() int {
	switch l {
	case LevelTwoFactors:
		return 2
	case LevelProvenanceOnly, LevelReproducibleOnly:
		return 1
	default:
		return 0
	}
}

// Factors lists the evidenced factors, in canonical order.
func (l Level) Factors() []Factor {
	provenance, reproducibility := l.Booleans()
	var factors []Factor
	if provenance {
		factors = append(factors, FactorProvenance)
	}
	if reproducibility {
		factors = append(factors, FactorReproducible)
	}
	return factors
}

// String renders the level for reports and logs.
func (l Level) String() string {
	switch l {
	case LevelTwoFactors:
		return "trusted publishing and reproducible builds"
	case LevelProvenanceOnly:
		return "trusted publishing"
	case LevelReproducibleOnly:
		return "reproducible builds"
	default:
		return "no veracity factors"
	}
}
