package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/segmentio/kafka-go"
)

const consumerGroup = "cart-cleanup"

// SnapshotDeleter removes a stored cart snapshot.
type SnapshotDeleter interface {
	Delete(ctx context.Context, key string) error
}

// messageReader is the part of *kafka.Reader the poller needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller consumes order-placed events and empties the ordering user's
// stored cart.
type Poller struct {
	reader messageReader
	carts  SnapshotDeleter
	log    *slog.Logger
}

func NewPoller(carts SnapshotDeleter, log *slog.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    TopicOrderPlaced,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reader, carts, log)
}

func newPoller(reader messageReader, carts SnapshotDeleter, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{reader: reader, carts: carts, log: log}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.getMessageAndEmptyCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing reader", "error", err)
	}
}

func (p *Poller) getMessageAndEmptyCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.ErrorContext(ctx, "error reading message", "error", err)
		}
		return
	}

	if t := header(m, eventTypeHeader); t != "" && t != eventTypeOrderPlaced {
		return
	}

	var ev domain.OrderPlaced
	if errUnmarshal := json.Unmarshal(m.Value, &ev); errUnmarshal != nil {
		p.log.ErrorContext(ctx, "error parsing message", "offset", m.Offset, "error", errUnmarshal)
		return
	}
	if ev.UserID == "" {
		p.log.WarnContext(ctx, "order placed event without user id", "order_id", ev.OrderID)
		return
	}

	if errDelete := p.carts.Delete(ctx, ev.UserID); errDelete != nil {
		p.log.ErrorContext(ctx, "failed to delete cart", "user_id", ev.UserID, "error", errDelete)
		return
	}
	p.log.InfoContext(ctx, "cart emptied after order", "user_id", ev.UserID, "order_id", ev.OrderID)
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
