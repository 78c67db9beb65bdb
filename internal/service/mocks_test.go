package service

import (
	"context"
	"sync"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

type mockCartRepository struct {
	m       sync.RWMutex
	carts   map[string]domain.CartState
	err     error
	getHits int
	// afterGet runs once a read has completed, outside the lock
	afterGet func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]domain.CartState{}}
}

func (m *mockCartRepository) GetCart(ctx context.Context, key string) (*domain.CartState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok, err := m.read(key)
	if m.afterGet != nil {
		m.afterGet()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &c, nil
}

func (m *mockCartRepository) read(key string) (domain.CartState, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getHits++
	if m.err != nil {
		return domain.CartState{}, false, m.err
	}
	c, ok := m.carts[key]
	return c, ok, nil
}

func (m *mockCartRepository) UpsertCart(_ context.Context, key string, state *domain.CartState) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[key] = *state
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[key]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, key)
	return nil
}

func (m *mockCartRepository) hits() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.getHits
}

type mockCache struct {
	m     sync.RWMutex
	carts map[string]domain.CartState
	err   error
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]domain.CartState{}}
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.CartState, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &c, nil
}

func (m *mockCache) Set(_ context.Context, key string, state *domain.CartState) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[key] = *state
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, key)
	return m.err
}

func (m *mockCache) has(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[key]
	return ok
}

type mockProductRepository struct {
	m        sync.Mutex
	products map[string]*domain.Product
	err      error
	// failDecrement makes DecrementStock fail for one product id
	failDecrement string
	getCalls      int
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: map[string]*domain.Product{}}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockProductRepository) ListProducts(context.Context) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) UpsertProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepository) DecrementStock(_ context.Context, id string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if id == m.failDecrement {
		return repository.ErrInsufficientStock
	}
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *mockProductRepository) IncrementStock(_ context.Context, id string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += quantity
	return nil
}

func (m *mockProductRepository) stock(id string) int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.products[id].Stock
}

type mockOrderRepository struct {
	m      sync.Mutex
	orders map[string]*domain.Order
	err    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

type mockUserRepository struct {
	m     sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrUserExists
	}
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type recordingPublisher struct {
	m      sync.Mutex
	events []domain.OrderPlaced
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, ev domain.OrderPlaced) error {
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}
