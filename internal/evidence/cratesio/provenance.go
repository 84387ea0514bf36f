package cratesio

import (
	"context"
	"errors"
	"fmt"

	"verax/internal/veracity/models"
)

// ProvenanceChecker checks the trusted-publishing factor against the
// registry. A version carries provenance exactly when the registry recorded
// trustpub data at publish time; that fact is fixed and never changes later.
type ProvenanceChecker struct {
	client *Client
}

// NewProvenanceChecker creates the provenance factor check.
func NewProvenanceChecker(client *Client) (*ProvenanceChecker, error) {
	if client == nil {
		return nil, errors.New("cratesio: registry client is required")
	}
	return &ProvenanceChecker{client: client}, nil
}

// Check returns the evidence URL for the publishing pipeline run, or the
// empty string when the version was not published through trusted publishing.
func (p *ProvenanceChecker) Check(ctx context.Context, pkg models.Package) (string, error) {
	details, err := p.client.VersionDetails(ctx, pkg)
	if err != nil {
		return "", err
	}
	if details.Trustpub == nil {
		return "", nil
	}
	return p.evidenceURL(pkg, details.Trustpub), nil
}

// evidenceURL points at the attested pipeline run when the attestation names
// one, and at the registry's version page otherwise.
func (p *ProvenanceChecker) evidenceURL(pkg models.Package, trustpub *TrustpubData) string {
	if trustpub.Provider == "github" && trustpub.Repository != "" && trustpub.RunID != "" {
		return fmt.Sprintf("https://github.com/%s/actions/runs/%s", trustpub.Repository, trustpub.RunID)
	}
	return fmt.Sprintf("%s/crates/%s/%s", p.client.baseURL, pkg.Name, pkg.Version)
}
