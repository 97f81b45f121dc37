package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher streams audit events to a Kafka topic for downstream
// compliance consumers. It satisfies Store so the worker can fan out to
// it like any other sink.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the brokers and ensures the topic
// exists before any produce.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	// Idempotent: CreateTopic on an existing topic returns an error we
	// tolerate; any other failure is fatal at startup.
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		exists, lerr := adm.ListTopics(ctx, topic)
		if lerr != nil || !exists.Has(topic) {
			client.Close()
			return nil, fmt.Errorf("ensure audit topic: %w", err)
		}
	}

	return &KafkaPublisher{client: client, topic: topic}, nil
}

type wireEvent struct {
	Category   string    `json:"category"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Subject    string    `json:"subject"`
	Amount     uint64    `json:"amount,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Device     string    `json:"device,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p *KafkaPublisher) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(wireEvent{
		Category:   string(event.Action.Category()),
		Action:     string(event.Action),
		Actor:      event.Actor,
		Subject:    event.Subject,
		Amount:     event.Amount,
		RequestID:  event.RequestID,
		Device:     event.Device,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
