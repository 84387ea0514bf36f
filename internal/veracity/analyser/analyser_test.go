package analyser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verax/internal/veracity/analyser"
	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
	"verax/internal/veracity/ports/mocks"
	"verax/internal/veracity/store/checks"
)

const (
	provenanceURL      = "https://github.com/serde-rs/serde/actions/runs/14215167438"
	reproducibilityURL = "https://attestations.example/serde/1.0.219/rebuild.intoto.jsonl"
)

type AnalyserSuite struct {
	suite.Suite
	pkg models.Package
}

func TestAnalyserSuite(t *testing.T) {
	suite.Run(t, new(AnalyserSuite))
}

func (s *AnalyserSuite) SetupTest() {
	s.pkg = models.MustPackage("serde", "1.0.219")
}

func (s *AnalyserSuite) newService(store ports.ChecksStore, provenance, reproducibility ports.FactorCheck) *analyser.Service {
	service, err := analyser.New(store, provenance, reproducibility)
	s.Require().NoError(err)
	return service
}

func (s *AnalyserSuite) TestConstructorValidation() {
	ctrl := gomock.NewController(s.T())
	check := mocks.NewMockFactorCheck(ctrl)
	store := checks.NewMemoryStore()

	s.Run("requires a store", func() {
		_, err := analyser.New(nil, check, check)
		s.Error(err)
	})

	s.Run("requires both factor checks", func() {
		_, err := analyser.New(store, nil, check)
		s.Error(err)
		_, err = analyser.New(store, check, nil)
		s.Error(err)
	})
}

func (s *AnalyserSuite) TestFreshAnalysisChecksBothFactorsOnce() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	provenance.EXPECT().Check(gomock.Any(), s.pkg).Return(provenanceURL, nil).Times(1)
	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return(reproducibilityURL, nil).Times(1)

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)

	s.Equal(models.Checks{
		ProvenanceEvidence:      provenanceURL,
		ReproducibilityEvidence: reproducibilityURL,
	}, result)
	s.Equal(models.LevelTwoFactors, result.Level())

	persisted, err := store.Find(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(result, persisted)
}

func (s *AnalyserSuite) TestFreshAnalysisWithoutEvidenceIsSuccessful() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	provenance.EXPECT().Check(gomock.Any(), s.pkg).Return("", nil).Times(1)
	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", nil).Times(1)

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(models.LevelNotAvailable, result.Level())

	// Zero evidence is still a result worth caching.
	persisted, err := store.Find(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(result, persisted)
}

func (s *AnalyserSuite) TestFreshAnalysisFailurePropagatesWithoutCaching() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	provenance.EXPECT().Check(gomock.Any(), s.pkg).Return("", errors.New("registry unreachable")).Times(1)
	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", nil).MaxTimes(1)

	_, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().Error(err)

	_, err = store.Find(context.Background(), s.pkg)
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *AnalyserSuite) TestReproducibleOnlyIsStable() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	cached := models.Checks{ReproducibilityEvidence: reproducibilityURL}
	s.Require().NoError(store.Save(context.Background(), s.pkg, cached))

	// No expectations: any factor check call fails the test.
	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(cached, result)
}

func (s *AnalyserSuite) TestTwoFactorsIsTerminal() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	cached := models.Checks{
		ProvenanceEvidence:      provenanceURL,
		ReproducibilityEvidence: reproducibilityURL,
	}
	s.Require().NoError(store.Save(context.Background(), s.pkg, cached))

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(cached, result)
}

func (s *AnalyserSuite) TestProvenanceOnlyPromotesAndPersists() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	cached := models.Checks{ProvenanceEvidence: provenanceURL}
	s.Require().NoError(store.Save(context.Background(), s.pkg, cached))

	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return(reproducibilityURL, nil).Times(1)

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(models.LevelTwoFactors, result.Level())
	s.Equal(provenanceURL, result.ProvenanceEvidence)

	persisted, err := store.Find(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(result, persisted)
}

func (s *AnalyserSuite) TestNotAvailableRecheckLeavesProvenanceAlone() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockChecksStore(ctrl)
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	mockStore.EXPECT().Find(gomock.Any(), s.pkg).Return(models.Checks{}, nil).Times(1)
	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", nil).Times(1)
	// Still no evidence: nothing changed, so nothing is rewritten and the
	// provenance check is never consulted.

	result, err := s.newService(mockStore, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(models.LevelNotAvailable, result.Level())
}

func (s *AnalyserSuite) TestNotAvailableBackfillsReproducibility() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	s.Require().NoError(store.Save(context.Background(), s.pkg, models.Checks{}))

	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return(reproducibilityURL, nil).Times(1)

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(models.LevelReproducibleOnly, result.Level())

	persisted, err := store.Find(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(result, persisted)
}

func (s *AnalyserSuite) TestRecheckFailureFallsBackToCached() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	cached := models.Checks{}
	s.Require().NoError(store.Save(context.Background(), s.pkg, cached))

	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", errors.New("attestation store down")).Times(1)

	result, err := s.newService(store, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(cached, result)
}

func (s *AnalyserSuite) TestCacheReadFailureIsHard() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockChecksStore(ctrl)
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	mockStore.EXPECT().Find(gomock.Any(), s.pkg).Return(models.Checks{}, errors.New("cache directory unreadable")).Times(1)

	_, err := s.newService(mockStore, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().Error(err)
	s.NotErrorIs(err, ports.ErrNotFound)
}

func (s *AnalyserSuite) TestPromotionSurvivesPersistFailure() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockChecksStore(ctrl)
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	cached := models.Checks{ProvenanceEvidence: provenanceURL}
	mockStore.EXPECT().Find(gomock.Any(), s.pkg).Return(cached, nil).Times(1)
	reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return(reproducibilityURL, nil).Times(1)
	mockStore.EXPECT().Save(gomock.Any(), s.pkg, gomock.Any()).Return(errors.New("disk full")).Times(1)

	result, err := s.newService(mockStore, provenance, reproducibility).Analyse(context.Background(), s.pkg)
	s.Require().NoError(err)
	s.Equal(models.LevelTwoFactors, result.Level())
}

func (s *AnalyserSuite) TestLevelNeverDecreasesAcrossEvaluations() {
	ctrl := gomock.NewController(s.T())
	store := checks.NewMemoryStore()
	provenance := mocks.NewMockFactorCheck(ctrl)
	reproducibility := mocks.NewMockFactorCheck(ctrl)

	provenance.EXPECT().Check(gomock.Any(), s.pkg).Return(provenanceURL, nil).Times(1)
	// First probe finds no attestation, the rebuild pipeline catches up later.
	gomock.InOrder(
		reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", nil),
		reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return("", errors.New("flaky store")),
		reproducibility.EXPECT().Check(gomock.Any(), s.pkg).Return(reproducibilityURL, nil),
	)

	service := s.newService(store, provenance, reproducibility)

	previous := -1
	for i := 0; i < 4; i++ {
		result, err := service.Analyse(context.Background(), s.pkg)
		s.Require().NoError(err)
		s.GreaterOrEqual(result.Level().Rank(), previous)
		previous = result.Level().Rank()
	}
	s.Equal(models.LevelTwoFactors.Rank(), previous)
}
