// Package natsbus wraps a NATS JetStream connection dedicated to the
// operator event stream: poll-run, device, and export events are published
// here and fanned out to WebSocket subscribers by internal/eventstream.
package natsbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StreamSyncEvents is the durable stream backing the operator event feed.
const StreamSyncEvents = "SYNC_EVENTS"

// SubjectAll is the wildcard subject every event type is published under,
// namespaced by event type: SYNC_EVENTS.log, SYNC_EVENTS.device_status, …
const SubjectAll = "SYNC_EVENTS.>"

// Level mirrors spec §6's event levels.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelNew     Level = "new"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is the structured record published for every operator-visible
// occurrence (spec §6): {timestamp, device_id?, device_name?, level,
// message, extra?}.
type Event struct {
	Timestamp  time.Time   `json:"timestamp"`
	Type       string      `json:"type"`
	DeviceID   *int64      `json:"device_id,omitempty"`
	DeviceName string      `json:"device_name,omitempty"`
	Level      Level       `json:"level"`
	Message    string      `json:"message"`
	Extra      interface{} `json:"extra,omitempty"`
}

// Bus wraps a NATS connection and its JetStream context.
type Bus struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
	log  *zap.Logger
}

// Connect dials NATS and initializes JetStream, with RetryOnFailedConnect
// and indefinite reconnects.
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	nc, err := nats.Connect(url, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natsbus: jetstream: %w", err)
	}

	logger.Info("natsbus: connected", zap.String("url", url))
	return &Bus{Conn: nc, JS: js, log: logger}, nil
}

// ProvisionStream idempotently ensures the SYNC_EVENTS stream exists.
func (b *Bus) ProvisionStream() error {
	if _, err := b.JS.StreamInfo(StreamSyncEvents); err == nil {
		b.log.Info("natsbus: stream already provisioned", zap.String("stream", StreamSyncEvents))
		return nil
	}

	_, err := b.JS.AddStream(&nats.StreamConfig{
		Name:      StreamSyncEvents,
		Subjects:  []string{SubjectAll},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("natsbus: provision stream: %w", err)
	}

	b.log.Info("natsbus: stream provisioned", zap.String("stream", StreamSyncEvents))
	return nil
}

// Publish sends ev on SYNC_EVENTS.{ev.Type} as a plain NATS message — the
// operator stream wants low-latency fan-out, not at-least-once redelivery,
// so this bypasses JetStream's ack round trip, the same tradeoff a cron
// scheduler makes publishing ephemeral ticks via Conn.Publish.
func (b *Bus) Publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("natsbus: marshal event: %w", err)
	}
	subject := "SYNC_EVENTS." + ev.Type
	if err := b.Conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("natsbus: publish: %w", err)
	}
	return nil
}

// Subscribe registers a plain (non-durable) subscription on SubjectAll,
// invoking handler for every decoded Event. Used by internal/eventstream to
// fan NATS traffic out to WebSocket clients.
func (b *Bus) Subscribe(handler func(Event)) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(SubjectAll, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("natsbus: dropping malformed event", zap.Error(err))
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("natsbus: subscribe: %w", err)
	}
	return sub, nil
}

// Close drains and closes the connection so in-flight publishes are not
// dropped.
func (b *Bus) Close() {
	if b.Conn == nil {
		return
	}
	if err := b.Conn.Drain(); err != nil {
		b.Conn.Close()
	}
}
