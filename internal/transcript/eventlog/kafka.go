package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"transcript/internal/platform/kafka/producer"
	"transcript/internal/transcript/models"
)

// MessageProducer is the subset of the Kafka producer used by the relay.
type MessageProducer interface {
	Produce(ctx context.Context, msgs ...producer.Message) error
}

// KafkaPublisher encodes events as JSON records keyed by token id, so all
// events of one token land on one partition in order.
type KafkaPublisher struct {
	producer MessageProducer
}

func NewKafkaPublisher(p MessageProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []models.Event) error {
	msgs := make([]producer.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", ev.Seq, err)
		}
		msgs = append(msgs, producer.Message{
			Key:   []byte(ev.TokenID.String()),
			Value: value,
			Headers: map[string]string{
				"event-kind":   string(ev.Kind),
				"event-seq":    fmt.Sprintf("%d", ev.Seq),
				"event-digest": ev.Digest.Hex(),
			},
		})
	}
	return p.producer.Produce(ctx, msgs...)
}
