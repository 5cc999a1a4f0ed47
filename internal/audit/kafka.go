package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore ships events to a Kafka topic, keyed by issuer so per-issuer
// ordering survives partitioning. ListByIssuer is not supported; Kafka is a
// sink, not a query surface.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafka builds a Kafka-backed audit sink and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, topic); err != nil {
		// Topic may already exist; anything else is fatal at wiring time.
		details, derr := adm.ListTopics(ctx, topic)
		if derr != nil || !details.Has(topic) {
			client.Close()
			return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
		}
	}

	return &KafkaStore{client: client, topic: topic}, nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Issuer),
		Value: payload,
	}
	return s.client.ProduceSync(ctx, record).FirstErr()
}

// ListByIssuer is unsupported on the Kafka sink.
func (s *KafkaStore) ListByIssuer(ctx context.Context, issuer string) ([]Event, error) {
	return nil, fmt.Errorf("kafka audit sink does not support queries")
}

// Close flushes and releases the producer.
func (s *KafkaStore) Close() {
	s.client.Close()
}
