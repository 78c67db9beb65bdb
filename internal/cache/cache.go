package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

// CartCache holds cart snapshots by scope key in front of the durable store.
type CartCache interface {
	Get(ctx context.Context, key string) (*domain.CartState, error)
	Set(ctx context.Context, key string, state *domain.CartState) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
