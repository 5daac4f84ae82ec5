package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
)

const (
	// StreamName is the JetStream stream journaling dashboard events.
	StreamName = "DASHBOARD_EVENTS"

	// SubjectPrefix is the prefix for all dashboard event subjects.
	SubjectPrefix = "dashboard.events"
)

// EventSubject returns the subject an event type is published on.
func EventSubject(t model.EventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, t)
}

// AllEvents is the wildcard matching every event subject.
func AllEvents() string {
	return SubjectPrefix + ".>"
}

// Backplane fans dashboard events out to every instance over core NATS.
// When a journal stream exists, JetStream also records each event.
type Backplane struct {
	client *Client

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewBackplane creates a backplane on client.
func NewBackplane(client *Client) *Backplane {
	return &Backplane{client: client}
}

// EnsureStream creates the event journal if it does not exist. Events are
// kept for a day; the journal is for inspection, not replay.
func (b *Backplane) EnsureStream(ctx context.Context) error {
	js := b.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{AllEvents()},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		Description: "Realtime dashboard events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	b.client.logger.Info("created event journal", zap.String("stream", StreamName))
	return nil
}

func (b *Backplane) Name() string { return "nats" }

// Publish sends evt on its subject.
func (b *Backplane) Publish(ctx context.Context, evt model.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Conn().Publish(EventSubject(evt.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe delivers every dashboard event to fn until ctx is done.
func (b *Backplane) Subscribe(ctx context.Context, fn func(model.Event)) error {
	sub, err := b.client.Conn().Subscribe(AllEvents(), func(msg *nats.Msg) {
		var evt model.Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			b.client.logger.Warn("invalid event payload", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		fn(evt)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Ping reports whether the connection is up.
func (b *Backplane) Ping(ctx context.Context) error {
	if !b.client.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

// Close unsubscribes and closes the connection.
func (b *Backplane) Close() error {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub != nil && sub.IsValid() {
		_ = sub.Unsubscribe()
	}
	b.client.Close()
	return nil
}
