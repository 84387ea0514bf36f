//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"verax/pkg/platform/audit"
	"verax/pkg/platform/audit/kafka"
	"verax/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *kafka.Publisher
	topic     string
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
	s.topic = "verax.audit.test"
	s.Require().NoError(s.redpanda.CreateTopic(context.Background(), s.topic))

	publisher, err := kafka.New([]string{s.redpanda.Broker}, kafka.WithTopic(s.topic))
	s.Require().NoError(err)
	s.publisher = publisher
}

func (s *PublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

// consumeRun reads the topic from the beginning and collects events for one
// run ID, so tests stay independent of each other's records.
func (s *PublisherSuite) consumeRun(runID string, want int) []audit.Event {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var events []audit.Event
	for len(events) < want {
		fetches := client.PollFetches(ctx)
		s.Require().Empty(fetches.Errors())
		fetches.EachRecord(func(record *kgo.Record) {
			var event audit.Event
			s.Require().NoError(json.Unmarshal(record.Value, &event))
			if event.RunID != runID {
				return
			}
			s.Equal(runID, string(record.Key))
			events = append(events, event)
		})
	}
	return events
}

func (s *PublisherSuite) TestEmitDeliversEvent() {
	event := audit.Event{
		RunID:   "run-emit",
		Action:  audit.ActionPackageAnalysed,
		Package: "pkg:cargo/serde@1.0.219",
		Level:   "trusted publishing and reproducible builds",
		Outcome: audit.OutcomeAnalysed,
	}
	s.Require().NoError(s.publisher.Emit(context.Background(), event))

	got := s.consumeRun("run-emit", 1)
	s.Require().Len(got, 1)
	s.Equal(event.Action, got[0].Action)
	s.Equal(event.Package, got[0].Package)
	s.Equal(event.Outcome, got[0].Outcome)
	s.NotEmpty(got[0].ID)
	s.False(got[0].Timestamp.IsZero())
}

func (s *PublisherSuite) TestBatchEventsArriveInOrder() {
	ctx := context.Background()
	for _, event := range []audit.Event{
		{RunID: "run-order", Action: audit.ActionPackageAnalysed, Package: "pkg:cargo/serde@1.0.219", Outcome: audit.OutcomeAnalysed},
		{RunID: "run-order", Action: audit.ActionPackageAnalysed, Package: "pkg:cargo/left-pad@0.1.0", Outcome: audit.OutcomeFailed},
		{RunID: "run-order", Action: audit.ActionBatchCompleted},
	} {
		s.Require().NoError(s.publisher.Emit(ctx, event))
	}

	got := s.consumeRun("run-order", 3)
	s.Require().Len(got, 3)
	s.Equal(audit.ActionPackageAnalysed, got[0].Action)
	s.Equal("pkg:cargo/serde@1.0.219", got[0].Package)
	s.Equal(audit.OutcomeFailed, got[1].Outcome)
	s.Equal(audit.ActionBatchCompleted, got[2].Action)
}

func (s *PublisherSuite) TestEmitRequiresAction() {
	s.Error(s.publisher.Emit(context.Background(), audit.Event{RunID: "run-invalid"}))
}
