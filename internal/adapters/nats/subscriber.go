package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeLocations consumes position reports on a durable work queue
// shared by all instances.
func (s *Subscriber) SubscribeLocations(ctx context.Context, handler func(ctx context.Context, update *domain.LocationUpdate) error) error {
	sub, err := s.js.Subscribe(SubjectLocationAll, func(msg *nats.Msg) {
		update, err := DecodeLocation(msg.Data)
		if err != nil {
			slog.Warn("drop malformed location", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, update); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("location-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeBoundaryEvents delivers every new boundary change to this
// instance through an ephemeral consumer.
func (s *Subscriber) SubscribeBoundaryEvents(ctx context.Context, handler func(ctx context.Context, event *domain.BoundaryEvent) error) error {
	sub, err := s.js.Subscribe(SubjectBoundaryAll, func(msg *nats.Msg) {
		var ev domain.BoundaryEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes. The shared connection is drained by its owner.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// DecodeLocation parses a position report payload.
func DecodeLocation(data []byte) (*domain.LocationUpdate, error) {
	var update domain.LocationUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return &update, nil
}
