package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"golang.org/x/sync/singleflight"
)

// SnapshotStore persists cart snapshots in Mongo with a Redis cache in front.
// It satisfies cart.Store.
type SnapshotStore struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *slog.Logger

	// writes counts Save and Delete calls. A cache fill is dropped when a
	// write happened since its repository read started.
	writes atomic.Uint64
}

func NewSnapshotStore(repo repository.CartRepository, cache cache.CartCache, log *slog.Logger) *SnapshotStore {
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotStore{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

type snapshot struct {
	state domain.CartState
	found bool
}

func (s *SnapshotStore) Load(ctx context.Context, key string) (domain.CartState, bool, error) {
	// concurrent misses for the same key share one repository read
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		// shared by every waiting caller
		ctx := context.WithoutCancel(ctx)

		state, err := s.cache.Get(ctx, key)
		if err == nil {
			return snapshot{state: *state, found: true}, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "key", key, "error", err) // continue to the repository
		}

		gen := s.writes.Load()
		state, errGet := s.repo.GetCart(ctx, key)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return snapshot{}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// filled before returning so a later Save of the same session
		// always invalidates after it
		s.fill(key, *state, gen)

		return snapshot{state: *state, found: true}, nil
	})
	if err != nil {
		return domain.CartState{}, false, err
	}

	snap := v.(snapshot)
	// singleflight callers share the value, so hand each one its own lines
	snap.state.Lines = append([]domain.CartLine(nil), snap.state.Lines...)
	return snap.state, snap.found, nil
}

func (s *SnapshotStore) Save(ctx context.Context, key string, state domain.CartState) error {
	if err := s.repo.UpsertCart(ctx, key, &state); err != nil {
		s.log.ErrorContext(ctx, "repo upsert cart error", "key", key, "error", err)
		return err
	}

	s.writes.Add(1)
	s.invalidate(key)
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	err := s.repo.DeleteCart(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.ErrorContext(ctx, "repo delete cart error", "key", key, "error", err)
		return err
	}

	s.writes.Add(1)
	s.invalidate(key)
	return nil
}

func (s *SnapshotStore) fill(key string, state domain.CartState, gen uint64) {
	if s.writes.Load() != gen {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, key, &state); err != nil {
		s.log.Warn("cache set error", "key", key, "error", err)
		return
	}
	// a write that slipped in between the check and the set may have been stale-filled
	if s.writes.Load() != gen {
		s.invalidate(key)
	}
}

func (s *SnapshotStore) invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cache invalidate error", "key", key, "error", err)
	}
}
