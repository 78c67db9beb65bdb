package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func placed(userID string) domain.OrderPlaced {
	return domain.OrderPlaced{OrderID: "o1", OrderNumber: "ORD-1", UserID: userID, TotalAmount: 12.99}
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.PublishOrderPlaced(context.Background(), placed("u1")))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u1", string(w.msgs[0].Key))
	assert.Equal(t, eventTypeOrderPlaced, header(w.msgs[0], eventTypeHeader))

	var ev domain.OrderPlaced
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "o1", ev.OrderID)
}

func TestPublishOrderPlaced_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.PublishOrderPlaced(context.Background(), placed("u1"))
	require.ErrorContains(t, err, "broker down")
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishOrderPlaced(context.Background(), placed("u1")))
}

func message(t *testing.T, ev domain.OrderPlaced, eventType string) kafka.Message {
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{
		Key:     []byte(ev.UserID),
		Value:   payload,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(eventType)}},
	}
}

func TestPoller_EmptiesOrderingUsersCart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := cart.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "u1", cart.Add(cart.Clear(), domain.Product{ID: "1", Price: 10})))
	require.NoError(t, store.Save(ctx, "u2", cart.Add(cart.Clear(), domain.Product{ID: "1", Price: 10})))

	reader := &fakeReader{msgs: []kafka.Message{
		{Value: []byte("{not json")},
		message(t, placed("u2"), "something.else"),
		message(t, placed(""), eventTypeOrderPlaced),
		message(t, placed("u1"), eventTypeOrderPlaced),
	}}
	p := newPoller(reader, store, nil)

	go p.Run(ctx)

	require.Eventually(t, func() bool {
		_, found, _ := store.Load(ctx, "u1")
		return !found
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, reader.pending())

	_, found, err := store.Load(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, found, "other event types are ignored")
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newPoller(&fakeReader{}, cart.NewMemoryStore(), nil)

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
