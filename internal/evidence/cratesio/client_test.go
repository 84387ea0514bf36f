package cratesio_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verax/internal/evidence/cratesio"
	"verax/internal/platform/httpclient"
	"verax/internal/veracity/models"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) newClient(serverURL string) *cratesio.Client {
	client, err := cratesio.NewClient(serverURL, httpclient.New(
		httpclient.WithMaxRetries(2),
		httpclient.WithBackoffBase(5*time.Millisecond),
	))
	s.Require().NoError(err)
	return client
}

func (s *ClientSuite) TestVersionDetails() {
	s.Run("decodes trustpub metadata", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/api/v1/crates/serde/1.0.219", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"version": {
					"num": "1.0.219",
					"checksum": "5f0e2c6ed6606019b4e29e69dbaba95b11854410e5347d525002456dbbb786b6",
					"trustpub_data": {
						"provider": "github",
						"repository": "serde-rs/serde",
						"run_id": "14215167438"
					}
				}
			}`))
		}))
		defer server.Close()

		details, err := s.newClient(server.URL).VersionDetails(context.Background(), models.MustPackage("serde", "1.0.219"))
		s.Require().NoError(err)
		s.Equal("1.0.219", details.Num)
		s.Equal("5f0e2c6ed6606019b4e29e69dbaba95b11854410e5347d525002456dbbb786b6", details.Checksum)
		s.Require().NotNil(details.Trustpub)
		s.Equal("serde-rs/serde", details.Trustpub.Repository)
	})

	s.Run("null trustpub decodes to nil", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version": {"num": "0.4.1", "checksum": "ab", "trustpub_data": null}}`))
		}))
		defer server.Close()

		details, err := s.newClient(server.URL).VersionDetails(context.Background(), models.MustPackage("old-crate", "0.4.1"))
		s.Require().NoError(err)
		s.Nil(details.Trustpub)
	})

	s.Run("unknown version is an error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := s.newClient(server.URL).VersionDetails(context.Background(), models.MustPackage("ghost", "9.9.9"))
		s.Require().Error(err)
		s.Contains(err.Error(), "404")
	})

	s.Run("persistent outage exhausts retries", func() {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := s.newClient(server.URL).VersionDetails(context.Background(), models.MustPackage("serde", "1.0.219"))
		s.Require().Error(err)
		s.Equal(int32(3), hits.Load())
	})
}

func (s *ClientSuite) TestDownloadArchive() {
	payload := []byte("crate-tarball-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v1/crates/anyhow/1.0.98/download", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	data, err := s.newClient(server.URL).DownloadArchive(context.Background(), models.MustPackage("anyhow", "1.0.98"))
	s.Require().NoError(err)
	s.Equal(payload, data)
}

func (s *ClientSuite) TestMostDownloaded() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v1/crates", r.URL.Path)
		s.Equal("downloads", r.URL.Query().Get("sort"))
		s.Equal("3", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"crates": [
				{"id": "serde", "max_stable_version": "1.0.219"},
				{"id": "unstable-only", "max_stable_version": ""},
				{"id": "rand", "max_stable_version": "0.9.1"}
			]
		}`))
	}))
	defer server.Close()

	packages, err := s.newClient(server.URL).MostDownloaded(context.Background(), 3)
	s.Require().NoError(err)
	s.Equal([]models.Package{
		models.MustPackage("serde", "1.0.219"),
		models.MustPackage("rand", "0.9.1"),
	}, packages)
}
