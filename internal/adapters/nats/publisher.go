package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// Subject layout: poi.events.<category>.<action>
const (
	StreamName      = "POI_EVENTS"
	SubjectPrefix   = "poi.events"
	SubjectWildcard = SubjectPrefix + ".>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect opens a NATS connection that keeps retrying in the background.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// NewPublisher enables JetStream on conn and ensures the event stream exists.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectWildcard},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPOIEvent publishes a change event for one point of interest.
func (p *Publisher) PublishPOIEvent(ctx context.Context, event *domain.POIEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(event), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection, e.g. for the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Subject returns the subject an event is published on.
func Subject(event *domain.POIEvent) string {
	return SubjectPrefix + "." + subjectToken(event.Category, domain.CategoryOther) + "." + subjectToken(event.Action, "unknown")
}

// CategorySubject returns the wildcard subject for all events of a category.
func CategorySubject(category string) string {
	return SubjectPrefix + "." + subjectToken(category, domain.CategoryOther) + ".>"
}

// subjectToken keeps [a-z0-9_-]; everything else becomes '_'.
func subjectToken(s, fallback string) string {
	s = domain.CleanCategory(s)
	if s == "" {
		return fallback
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
