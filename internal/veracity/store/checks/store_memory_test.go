package checks_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
	"verax/internal/veracity/store/checks"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *checks.MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = checks.NewMemoryStore()
}

func (s *MemoryStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	pkg := models.MustPackage("serde", "1.0.219")
	stored := models.Checks{ProvenanceEvidence: "https://github.com/serde-rs/serde/actions/runs/123"}

	s.Require().NoError(s.store.Save(ctx, pkg, stored))

	found, err := s.store.Find(ctx, pkg)
	s.Require().NoError(err)
	s.Equal(stored, found)
}

func (s *MemoryStoreSuite) TestMissIsNotFound() {
	_, err := s.store.Find(context.Background(), models.MustPackage("unseen", "0.1.0"))
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *MemoryStoreSuite) TestConcurrentDistinctKeys() {
	ctx := context.Background()
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			pkg := models.MustPackage("crate", fmt.Sprintf("1.0.%d", idx))
			_ = s.store.Save(ctx, pkg, models.Checks{
				ReproducibilityEvidence: fmt.Sprintf("https://attestations.example/crate/1.0.%d", idx),
			})
		}(i)
	}
	wg.Wait()

	s.Equal(writers, s.store.Len())

	found, err := s.store.Find(ctx, models.MustPackage("crate", "1.0.7"))
	s.Require().NoError(err)
	s.Equal("https://attestations.example/crate/1.0.7", found.ReproducibilityEvidence)
}
