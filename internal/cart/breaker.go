package cart

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type loadResult struct {
	state domain.CartState
	found bool
}

// BreakerStore guards a Store with a circuit breaker so that an unreachable
// backend fails fast instead of stalling every cart request.
type BreakerStore struct {
	inner  Store
	loads  *gobreaker.CircuitBreaker[loadResult]
	writes *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerStore(inner Store, log *slog.Logger) *BreakerStore {
	if log == nil {
		log = slog.Default()
	}
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("cart store breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}
	}
	return &BreakerStore{
		inner:  inner,
		loads:  gobreaker.NewCircuitBreaker[loadResult](settings("cart-store-load")),
		writes: gobreaker.NewCircuitBreaker[struct{}](settings("cart-store-write")),
	}
}

func (b *BreakerStore) Load(ctx context.Context, key string) (domain.CartState, bool, error) {
	res, err := b.loads.Execute(func() (loadResult, error) {
		state, found, err := b.inner.Load(ctx, key)
		return loadResult{state: state, found: found}, err
	})
	if err != nil {
		return domain.CartState{}, false, err
	}
	return res.state, res.found, nil
}

func (b *BreakerStore) Save(ctx context.Context, key string, state domain.CartState) error {
	_, err := b.writes.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Save(ctx, key, state)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := b.writes.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Delete(ctx, key)
	})
	return err
}
