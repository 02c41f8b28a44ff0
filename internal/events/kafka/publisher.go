// Package kafka publishes ledger events to Kafka as JSON messages.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/segmentio/kafka-go"
)

// Publisher writes events through a single writer; the topic is set per
// message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish marshals event to JSON and writes it to topic, keyed by the
// account so one account's events stay ordered.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	msg, err := Message(topic, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", topic, err)
	}
	return nil
}

// Message builds the Kafka message for an event.
func Message(topic string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka marshal %s: %w", topic, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(accountKey(event)),
		Value: data,
		Time:  time.Now(),
	}, nil
}

func accountKey(event any) string {
	switch e := event.(type) {
	case events.BatchIngested:
		return e.AccountID
	case *events.BatchIngested:
		return e.AccountID
	case events.AuditVerdict:
		return e.AccountID
	case *events.AuditVerdict:
		return e.AccountID
	}
	return ""
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ events.Publisher = (*Publisher)(nil)
