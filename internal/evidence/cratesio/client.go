// Package cratesio talks to the crates.io registry API: version metadata
// (including trusted-publishing provenance), crate archive downloads, and the
// most-downloaded listing used for ecosystem inquiries.
package cratesio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"verax/internal/platform/httpclient"
	"verax/internal/veracity/models"
)

const (
	// DefaultBaseURL is the official registry.
	DefaultBaseURL = "https://crates.io"

	// DefaultPacing is the minimum interval between registry requests. The
	// registry asks crawlers to stay at or below one request per second.
	DefaultPacing = 1100 * time.Millisecond
)

// Client is a crates.io API client.
type Client struct {
	baseURL string
	http    *httpclient.Client
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a registry client against the given base URL.
func NewClient(baseURL string, transport *httpclient.Client, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("cratesio: base URL is required")
	}
	if transport == nil {
		return nil, errors.New("cratesio: transport is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    transport,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// TrustpubData is the trusted-publishing attestation attached to a version
// published through an automated pipeline. Versions uploaded manually have
// none.
type TrustpubData struct {
	Provider   string `json:"provider"`
	Repository string `json:"repository"`
	RunID      string `json:"run_id"`
}

// VersionDetails is the registry metadata for one published version.
type VersionDetails struct {
	Num      string        `json:"num"`
	Checksum string        `json:"checksum"`
	Trustpub *TrustpubData `json:"trustpub_data"`
}

type versionResponse struct {
	Version VersionDetails `json:"version"`
}

// VersionDetails fetches the registry metadata for pkg.
// Any non-200 response is an error, including 404 for unknown versions.
func (c *Client) VersionDetails(ctx context.Context, pkg models.Package) (VersionDetails, error) {
	url := fmt.Sprintf("%s/api/v1/crates/%s/%s", c.baseURL, pkg.Name, pkg.Version)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return VersionDetails{}, fmt.Errorf("fetch version details for %s: %w", pkg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VersionDetails{}, fmt.Errorf("fetch version details for %s: registry returned %s", pkg, resp.Status)
	}

	var decoded versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return VersionDetails{}, fmt.Errorf("decode version details for %s: %w", pkg, err)
	}
	return decoded.Version, nil
}

// DownloadArchive fetches the .crate archive for pkg. The registry redirects
// to its CDN; redirects are followed transparently.
func (c *Client) DownloadArchive(ctx context.Context, pkg models.Package) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/crates/%s/%s/download", c.baseURL, pkg.Name, pkg.Version)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download archive for %s: %w", pkg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download archive for %s: registry returned %s", pkg, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive for %s: %w", pkg, err)
	}
	return data, nil
}

type crateListResponse struct {
	Crates []struct {
		ID               string `json:"id"`
		MaxStableVersion string `json:"max_stable_version"`
	} `json:"crates"`
}

// MostDownloaded lists the registry's most-downloaded crates at their latest
// stable version. Crates without a stable version are skipped.
func (c *Client) MostDownloaded(ctx context.Context, limit int) ([]models.Package, error) {
	url := fmt.Sprintf("%s/api/v1/crates?page=1&per_page=%d&sort=downloads", c.baseURL, limit)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list most downloaded crates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list most downloaded crates: registry returned %s", resp.Status)
	}

	var decoded crateListResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode most downloaded crates: %w", err)
	}

	packages := make([]models.Package, 0, len(decoded.Crates))
	for _, crate := range decoded.Crates {
		if crate.MaxStableVersion == "" {
			continue
		}
		pkg, err := models.NewPackage(crate.ID, crate.MaxStableVersion)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unparseable crate from listing",
				slog.String("crate", crate.ID),
				slog.String("version", crate.MaxStableVersion),
				slog.String("error", err.Error()),
			)
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}
