// Package events announces recorded approvals to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ceassist/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// TypeApprovalRecorded is the event type emitted after an approval upsert.
const TypeApprovalRecorded = "approval.recorded"

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "ce.approvals"

const publishTimeout = 10 * time.Second

// ApprovalRecorded is the payload published after an approval is stored.
type ApprovalRecorded struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	ThreadID   string          `json:"thread_id"`
	Approval   models.Approval `json:"approval"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewApprovalRecorded builds an event with a fresh ID.
func NewApprovalRecorded(threadID string, approval models.Approval, at time.Time) ApprovalRecorded {
	return ApprovalRecorded{
		EventID:    uuid.NewString(),
		Type:       TypeApprovalRecorded,
		ThreadID:   threadID,
		Approval:   approval,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers approval events.
type Publisher interface {
	PublishApproval(ctx context.Context, event ApprovalRecorded) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by thread ID, so all
// events for a thread land on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}, logger)
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (p *KafkaPublisher) PublishApproval(ctx context.Context, event ApprovalRecorded) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.ThreadID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("thread_id", event.ThreadID).
		Msg("Published approval event")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishApproval(context.Context, ApprovalRecorded) error { return nil }

func (NopPublisher) Close() error { return nil }
