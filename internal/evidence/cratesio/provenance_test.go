package cratesio_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verax/internal/evidence/cratesio"
	"verax/internal/platform/httpclient"
	"verax/internal/veracity/models"
)

type ProvenanceSuite struct {
	suite.Suite
}

func TestProvenanceSuite(t *testing.T) {
	suite.Run(t, new(ProvenanceSuite))
}

func (s *ProvenanceSuite) newChecker(serverURL string) *cratesio.ProvenanceChecker {
	client, err := cratesio.NewClient(serverURL, httpclient.New(
		httpclient.WithMaxRetries(1),
		httpclient.WithBackoffBase(5*time.Millisecond),
	))
	s.Require().NoError(err)
	checker, err := cratesio.NewProvenanceChecker(client)
	s.Require().NoError(err)
	return checker
}

func (s *ProvenanceSuite) TestCheck() {
	s.Run("attested version yields the pipeline run URL", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"version": {
					"num": "1.0.219",
					"trustpub_data": {
						"provider": "github",
						"repository": "serde-rs/serde",
						"run_id": "14215167438"
					}
				}
			}`))
		}))
		defer server.Close()

		evidence, err := s.newChecker(server.URL).Check(context.Background(), models.MustPackage("serde", "1.0.219"))
		s.Require().NoError(err)
		s.Equal("https://github.com/serde-rs/serde/actions/runs/14215167438", evidence)
	})

	s.Run("attestation without a run falls back to the version page", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"version": {
					"num": "2.1.0",
					"trustpub_data": {"provider": "gitlab", "repository": "", "run_id": ""}
				}
			}`))
		}))
		defer server.Close()

		evidence, err := s.newChecker(server.URL).Check(context.Background(), models.MustPackage("gitlab-crate", "2.1.0"))
		s.Require().NoError(err)
		s.Equal(server.URL+"/crates/gitlab-crate/2.1.0", evidence)
	})

	s.Run("manual upload yields no evidence", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version": {"num": "0.4.1", "trustpub_data": null}}`))
		}))
		defer server.Close()

		evidence, err := s.newChecker(server.URL).Check(context.Background(), models.MustPackage("old-crate", "0.4.1"))
		s.Require().NoError(err)
		s.Empty(evidence)
	})

	s.Run("registry failure surfaces as an error, not absence", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		evidence, err := s.newChecker(server.URL).Check(context.Background(), models.MustPackage("serde", "1.0.219"))
		s.Require().Error(err)
		s.Empty(evidence)
	})
}
