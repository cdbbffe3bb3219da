package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 2 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RideEvent is the message published for every ride status change
type RideEvent struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Ride       *models.Ride `json:"ride"`
}

// Publisher writes ride events to a Kafka topic, keyed by ride id so one
// ride's events stay ordered within a partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: w}
}

// Publish sends one event. It gives up after a short timeout so a slow broker
// does not hold the request.
func (p *Publisher) Publish(ctx context.Context, event string, ride *models.Ride) error {
	b, err := json.Marshal(RideEvent{Type: event, OccurredAt: time.Now().UTC(), Ride: ride})
	if err != nil {
		return fmt.Errorf("failed to marshal ride event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(ride.ID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
