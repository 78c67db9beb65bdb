package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() domain.CartState {
	return domain.CartState{
		Lines: []domain.CartLine{
			{Product: domain.Product{ID: "1", Name: "Coffee Mug", Price: 10}, Quantity: 5},
			{Product: domain.Product{ID: "2", Name: "Backpack", Price: 20}, Quantity: 1},
		},
		Total: 70,
	}
}

func TestLoad_ReadsRepoAndFillsCache(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	c := newMockCache()

	sut := NewSnapshotStore(repo, c, nil)
	state, found, err := sut.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, state.Lines, 2)
	assert.Equal(t, 5, state.Lines[0].Quantity)

	assert.True(t, c.has("u1"), "cart was not set in cache")
}

func TestLoadThenSave_CacheHoldsNoStaleSnapshot(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	c := newMockCache()
	sut := NewSnapshotStore(repo, c, nil)
	ctx := context.Background()

	_, _, err := sut.Load(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, sut.Save(ctx, "u1", domain.CartState{Lines: []domain.CartLine{}}))

	state, found, err := sut.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, state.Lines)
}

func TestLoad_CacheHitSkipsRepo(t *testing.T) {
	repo := newMockCartRepository()
	c := newMockCache()
	c.carts["u1"] = sampleState()

	sut := NewSnapshotStore(repo, c, nil)
	state, found, err := sut.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 70.0, state.Total)
	assert.Equal(t, 0, repo.hits())
}

func TestLoad_CacheErrorFallsBackToRepo(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	c := newMockCache()
	c.err = fmt.Errorf("redis down")

	sut := NewSnapshotStore(repo, c, nil)
	_, found, err := sut.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLoad_NotFound(t *testing.T) {
	sut := NewSnapshotStore(newMockCartRepository(), newMockCache(), nil)

	state, found, err := sut.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, state.Lines)
}

func TestLoad_RepoError(t *testing.T) {
	repo := newMockCartRepository()
	repo.err = fmt.Errorf("database error")
	c := newMockCache()

	sut := NewSnapshotStore(repo, c, nil)
	_, _, err := sut.Load(context.Background(), "u1")
	require.ErrorContains(t, err, "database error")
	assert.False(t, c.has("u1"))
}

func TestLoad_ConcurrentCallersGetIndependentCopies(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	sut := NewSnapshotStore(repo, newMockCache(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, _, err := sut.Load(context.Background(), "u1")
			assert.NoError(t, err)
			if len(state.Lines) > 0 {
				state.Lines[0].Quantity = 99
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, repo.carts["u1"].Lines[0].Quantity)
}

func TestSave_WritesRepoAndInvalidatesCache(t *testing.T) {
	repo := newMockCartRepository()
	c := newMockCache()
	c.carts["u1"] = sampleState()

	sut := NewSnapshotStore(repo, c, nil)
	require.NoError(t, sut.Save(context.Background(), "u1", domain.CartState{Lines: []domain.CartLine{}}))

	assert.Empty(t, repo.carts["u1"].Lines)
	assert.False(t, c.has("u1"), "cache was not invalidated")
}

func TestSave_RepoError(t *testing.T) {
	repo := newMockCartRepository()
	repo.err = fmt.Errorf("database error")

	sut := NewSnapshotStore(repo, newMockCache(), nil)
	require.ErrorContains(t, sut.Save(context.Background(), "u1", sampleState()), "database error")
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	c := newMockCache()
	c.carts["guest:d1"] = sampleState()

	sut := NewSnapshotStore(newMockCartRepository(), c, nil)
	require.NoError(t, sut.Delete(context.Background(), "guest:d1"))
	assert.False(t, c.has("guest:d1"))
}

func TestDelete_RepoError(t *testing.T) {
	repo := newMockCartRepository()
	repo.err = fmt.Errorf("database error")

	sut := NewSnapshotStore(repo, newMockCache(), nil)
	require.ErrorContains(t, sut.Delete(context.Background(), "u1"), "database error")
}

func TestLoad_CancelledCallerDoesNotFailSharedRead(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	sut := NewSnapshotStore(repo, newMockCache(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, found, err := sut.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 70.0, state.Total)
}

func TestLoad_ConcurrentSaveDropsStaleFill(t *testing.T) {
	repo := newMockCartRepository()
	repo.carts["u1"] = sampleState()
	c := newMockCache()
	sut := NewSnapshotStore(repo, c, nil)
	ctx := context.Background()

	// another device saves while this read is in flight
	repo.afterGet = func() {
		repo.afterGet = nil
		require.NoError(t, sut.Save(ctx, "u1", domain.CartState{Lines: []domain.CartLine{}}))
	}

	state, found, err := sut.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 70.0, state.Total, "the in-flight read returns what it read")
	assert.False(t, c.has("u1"), "stale snapshot must not be cached")

	state, _, err = sut.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state.Lines)
}
