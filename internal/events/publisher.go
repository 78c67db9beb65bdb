package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	TopicOrderPlaced = "order-placed"

	eventTypeHeader      = "event_type"
	eventTypeOrderPlaced = "order.placed"
)

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicOrderPlaced,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

// PublishOrderPlaced writes ev keyed by user id, so one user's orders stay
// in partition order.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order placed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(eventTypeOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order placed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. It stands in when no brokers are configured.
type NoopPublisher struct {
	Log *slog.Logger
}

func (n NoopPublisher) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	if n.Log != nil {
		n.Log.DebugContext(ctx, "order placed event dropped, no brokers configured", "order_id", ev.OrderID)
	}
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
