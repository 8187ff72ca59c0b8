// Package events publishes batch lifecycle events to Kafka so downstream
// consumers (reporting, cashier screens) can react without polling the
// batch store.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"artshow/internal/batch"
)

// BatchProcessedEvent is the JSON payload emitted after a successful run.
type BatchProcessedEvent struct {
	BatchID     string    `json:"batch_id"`
	BatchType   string    `json:"batchtype"`
	ProcessedAt time.Time `json:"processed_at"`
}

// KafkaPublisher produces batch events with franz-go.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects a producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

// EnsureTopic creates the event topic when it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, topic := range resp.Sorted() {
		if topic.Err != nil && !errors.Is(topic.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic.Topic, topic.Err)
		}
	}
	return nil
}

// BatchProcessed publishes one event, waiting for broker acknowledgement so
// the caller can log delivery failures.
func (p *KafkaPublisher) BatchProcessed(ctx context.Context, scan *batch.BatchScan) error {
	event := BatchProcessedEvent{
		BatchID:     scan.ID.String(),
		BatchType:   string(scan.BatchType),
		ProcessedAt: scan.UpdatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode batch event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.BatchID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce batch event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
