package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	ride := &models.Ride{ID: "ride-1", Status: models.RideAccepted, Fare: 100}
	if err := p.Publish(context.Background(), "ride.accepted", ride); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "ride-1" {
		t.Errorf("key = %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "ride.accepted" {
		t.Errorf("headers = %v", msg.Headers)
	}

	var ev RideEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "ride.accepted" || ev.Ride.ID != "ride-1" || ev.Ride.Status != models.RideAccepted {
		t.Errorf("event = %+v", ev)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("occurredAt not set")
	}
}

func TestPublishWriterError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("broker down")}}
	if err := p.Publish(context.Background(), "ride.started", &models.Ride{ID: "r"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
}
