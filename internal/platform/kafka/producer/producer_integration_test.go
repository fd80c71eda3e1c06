//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"transcript/internal/platform/kafka/producer"
	"transcript/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *ProducerSuite) TestProduceInOrder() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "transcripts-" + uuid.NewString()

	p, err := producer.New(producer.Config{Brokers: s.redpanda.Brokers, Topic: topic, ClientID: "test"}, nil)
	s.Require().NoError(err)
	defer p.Close()
	s.Require().NoError(p.Ping(ctx))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	s.Require().NoError(p.Produce(ctx,
		producer.Message{Key: []byte("1"), Value: []byte("first"), Headers: map[string]string{"event-kind": "minted"}},
		producer.Message{Key: []byte("1"), Value: []byte("second"), Headers: map[string]string{"event-kind": "burned"}},
	))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var values []string
	var kinds []string
	for len(values) < 2 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(s.T(), ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			values = append(values, string(r.Value))
			for _, h := range r.Headers {
				if h.Key == "event-kind" {
					kinds = append(kinds, string(h.Value))
				}
			}
		})
	}
	s.Equal([]string{"first", "second"}, values)
	s.Equal([]string{"minted", "burned"}, kinds)
}
