//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"bondgate/internal/audit"
	"bondgate/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaPublisherSuite) TestPublishedEventReachesConsumer() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "bondgate.audit.test"

	publisher, err := audit.NewKafkaPublisher(ctx, s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	defer publisher.Close()

	occurred := time.Now().UTC().Truncate(time.Millisecond)
	event := audit.Event{
		Action:     audit.EventBondsBought,
		Actor:      "investor-1",
		Subject:    "bond-1",
		Amount:     5,
		RequestID:  "req-1",
		OccurredAt: occurred,
	}
	s.Require().NoError(publisher.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("bond-1", string(records[0].Key))

	var wire struct {
		Category string `json:"category"`
		Action   string `json:"action"`
		Actor    string `json:"actor"`
		Amount   uint64 `json:"amount"`
	}
	s.Require().NoError(json.Unmarshal(records[0].Value, &wire))
	s.Equal("compliance", wire.Category)
	s.Equal("bonds_bought", wire.Action)
	s.Equal("investor-1", wire.Actor)
	s.EqualValues(5, wire.Amount)
}

func (s *KafkaPublisherSuite) TestTopicEnsureIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "bondgate.audit.idempotent"

	first, err := audit.NewKafkaPublisher(ctx, s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	first.Close()

	second, err := audit.NewKafkaPublisher(ctx, s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	second.Close()
}
