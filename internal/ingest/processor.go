// Package ingest consumes activity events from Kafka, persists them and keeps
// the semantic index current.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/motivaitor/insight/internal/activity"
	"github.com/motivaitor/insight/internal/observability"
)

// Header keys read from every message.
const (
	HeaderEventType = "event_type"
	HeaderOwnerID   = "owner_id"
)

// ErrUnsupportedEvent is returned by handlers for event types they ignore.
// The processor commits such messages.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// ErrMalformedPayload is returned by handlers for payloads that can never be
// decoded. The processor commits such messages.
var ErrMalformedPayload = errors.New("malformed payload")

// Reader exposes the subset of kafka.Reader the processor needs.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded events.
type Handler interface {
	Handle(context.Context, Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Event is a decoded activity message.
type Event struct {
	Topic      string
	Partition  int
	Offset     int64
	Timestamp  time.Time
	ID         string
	EventType  string
	OwnerID    activity.OwnerID
	OccurredAt time.Time
	Payload    json.RawMessage
}

// envelope is the JSON body of an activity message.
type envelope struct {
	ID         string           `json:"id"`
	OwnerID    activity.OwnerID `json:"owner_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    json.RawMessage  `json:"payload"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger overrides the processor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRetryBackoff sets the delay before the first retry of a failed event
// and the cap it doubles up to.
// Non-positive values keep the defaults.
func WithRetryBackoff(initial, limit time.Duration) Option {
	return func(p *Processor) {
		if initial > 0 {
			p.backoff = initial
		}
		if limit > 0 {
			p.maxBackoff = limit
		}
	}
}

// Processor pulls messages, decodes them and dispatches to a Handler.
//
// A message whose handler fails is retried until it succeeds, fails with a
// permanent error, or the context ends. No later message of the
// partition is fetched meanwhile, so a commit never moves past unprocessed
// work.
type Processor struct {
	reader     Reader
	handler    Handler
	logger     *slog.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewProcessor creates a Processor.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:     reader,
		handler:    handler,
		logger:     slog.Default().With("component", "ingest"),
		backoff:    100 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes messages until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("fetch failed", "error", err)
			continue
		}

		event, err := Decode(msg)
		if err != nil {
			p.logger.Warn("dropping malformed message",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			observability.RecordIngest(event.EventType, "decode_error")
			// Committed so a bad message cannot block the partition.
			p.commit(ctx, msg)
			continue
		}

		outcome, err := p.handle(ctx, event)
		if err != nil {
			return err
		}
		if p.commit(ctx, msg) {
			observability.RecordIngest(event.EventType, outcome)
		}
	}
}

// handle dispatches event, retrying handler failures with capped exponential
// backoff. It returns the outcome label to record once the message is
// committed, or the context error if ctx ends first.
func (p *Processor) handle(ctx context.Context, event Event) (string, error) {
	delay := p.backoff
	for attempt := 1; ; attempt++ {
		err := p.handler.Handle(ctx, event)
		switch {
		case err == nil:
			return "processed", nil
		case errors.Is(err, ErrMalformedPayload):
			p.logger.Warn("dropping malformed payload",
				"event_type", event.EventType, "id", event.ID, "offset", event.Offset, "error", err)
			return "decode_error", nil
		case errors.Is(err, ErrUnsupportedEvent):
			p.logger.Debug("ignoring event", "event_type", event.EventType, "id", event.ID)
			return "ignored", nil
		case errors.Is(err, activity.ErrNotFound):
			p.logger.Warn("dropping event for unknown record",
				"event_type", event.EventType, "owner", event.OwnerID, "id", event.ID, "error", err)
			return "not_found", nil
		}

		p.logger.Error("handler failed, retrying",
			"event_type", event.EventType, "owner", event.OwnerID, "id", event.ID,
			"attempt", attempt, "retry_in", delay, "error", err)
		observability.RecordIngest(event.EventType, "handler_error")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, p.maxBackoff)
	}
}

func (p *Processor) commit(ctx context.Context, msg kafka.Message) bool {
	if err := p.reader.CommitMessages(ctx, msg); err != nil {
		p.logger.Warn("commit failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return false
	}
	return true
}

// Decode turns a kafka message into an Event. The event_type header is
// required; the owner comes from the owner_id header, else from the body.
// Events without an id are assigned a random one.
func Decode(msg kafka.Message) (Event, error) {
	event := Event{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}

	eventType, ok := headerValue(msg, HeaderEventType)
	if !ok || len(eventType) == 0 {
		return event, errors.New("missing event_type header")
	}
	event.EventType = string(eventType)

	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return event, fmt.Errorf("decode envelope: %w", err)
	}

	event.OwnerID = env.OwnerID
	if owner, ok := headerValue(msg, HeaderOwnerID); ok && len(owner) > 0 {
		event.OwnerID = activity.OwnerID(owner)
	}
	if !event.OwnerID.Valid() {
		return event, activity.ErrEmptyOwner
	}

	event.ID = env.ID
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.OccurredAt = env.OccurredAt
	if event.OccurredAt.IsZero() {
		event.OccurredAt = msg.Time
	}
	event.Payload = env.Payload
	return event, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return nil, false
}

// NewKafkaReader builds a consumer-group reader for topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         groupID,
		Topic:           topic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		ReadLagInterval: -1,
	})
}
