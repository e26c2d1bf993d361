package natsadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// Subjects.
const (
	SubjectLocationPrefix = "tracking.location."
	SubjectLocationAll    = "tracking.location.>"
	SubjectBoundaryAll    = "tracking.boundary.>"
	SubjectBoundaryCreate = "tracking.boundary.created"
	SubjectBoundaryDelete = "tracking.boundary.deleted"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NewPublisher enables JetStream on conn and makes sure the tracking
// streams exist.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "TRACKING_LOCATIONS",
			Subjects:  []string{SubjectLocationAll},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "TRACKING_BOUNDARIES",
			Subjects:  []string{SubjectBoundaryAll},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishBoundaryCreated(ctx context.Context, b *domain.Boundary) error {
	return p.publishBoundary(ctx, SubjectBoundaryCreate, domain.BoundaryEvent{
		Type: domain.BoundaryCreated, ID: b.ID, Boundary: b, Time: time.Now().UTC(),
	})
}

func (p *Publisher) PublishBoundaryDeleted(ctx context.Context, id string) error {
	return p.publishBoundary(ctx, SubjectBoundaryDelete, domain.BoundaryEvent{
		Type: domain.BoundaryDeleted, ID: id, Time: time.Now().UTC(),
	})
}

func (p *Publisher) publishBoundary(ctx context.Context, subject string, ev domain.BoundaryEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishLocation(ctx context.Context, update *domain.LocationUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(LocationSubject(update.UserID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// LocationSubject returns the subject for a user's position reports.
// Characters NATS treats specially are replaced.
func LocationSubject(userID string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, userID)
	if token == "" {
		token = "_"
	}
	return SubjectLocationPrefix + token
}
