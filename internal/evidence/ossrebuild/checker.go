// Package ossrebuild checks the reproducibility factor against an OSS
// Rebuild attestation store. The store is content-addressed: an attestation
// either exists at the derived URL or it does not, so presence is probed
// with a HEAD request.
package ossrebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"verax/internal/platform/httpclient"
	"verax/internal/veracity/models"
)

// DefaultBaseURL is Google's public rebuild attestation bucket for the
// cargo ecosystem.
const DefaultBaseURL = "https://storage.googleapis.com/google-rebuild-attestations/cratesio"

// Checker checks whether an independent rebuild attestation exists for a
// package version. Attestations are back-filled continuously by the rebuild
// pipeline, so an absent attestation may appear on a later check.
type Checker struct {
	baseURL string
	http    *httpclient.Client
}

// NewChecker creates the reproducibility factor check.
func NewChecker(baseURL string, transport *httpclient.Client) (*Checker, error) {
	if baseURL == "" {
		return nil, errors.New("ossrebuild: base URL is required")
	}
	if transport == nil {
		return nil, errors.New("ossrebuild: transport is required")
	}
	return &Checker{baseURL: baseURL, http: transport}, nil
}

// Check probes the attestation store. 200 means the rebuild attestation
// exists and its URL is the evidence; 404 means no attestation yet; any
// other status is an error, never treated as absence.
func (c *Checker) Check(ctx context.Context, pkg models.Package) (string, error) {
	url := c.AttestationURL(pkg)

	resp, err := c.http.Head(ctx, url)
	if err != nil {
		return "", fmt.Errorf("probe rebuild attestation for %s: %w", pkg, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return url, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("probe rebuild attestation for %s: store returned %s", pkg, resp.Status)
	}
}

// AttestationURL derives the content-addressed attestation location for pkg.
func (c *Checker) AttestationURL(pkg models.Package) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s.crate/rebuild.intoto.jsonl",
		c.baseURL, pkg.Name, pkg.Version, pkg.Name, pkg.Version)
}
