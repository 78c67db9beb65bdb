package http

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

type CatalogMock struct {
	products []domain.Product
	err      error
}

func (m CatalogMock) List(context.Context) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Product, len(m.products))
	for i := range m.products {
		p := m.products[i]
		out[i] = &p
	}
	return out, nil
}

func (m CatalogMock) Get(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

type OrdersMock struct {
	mu         sync.Mutex
	validation domain.ValidationResult
	placeErr   error
	placed     []service.PlaceOrderRequest
	validated  [][]domain.LineRequest
	orders     map[string]*domain.Order
}

func newOrdersMock() *OrdersMock {
	return &OrdersMock{
		validation: domain.ValidationResult{Valid: true, Errors: []domain.StockFailure{}},
		orders:     map[string]*domain.Order{},
	}
}

func (m *OrdersMock) Validate(_ context.Context, lines []domain.LineRequest) (domain.ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validated = append(m.validated, lines)
	return m.validation, nil
}

func (m *OrdersMock) PlaceOrder(_ context.Context, req service.PlaceOrderRequest) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.placed = append(m.placed, req)
	order := &domain.Order{
		ID:          "o1",
		OrderNumber: "ORD-1",
		UserID:      req.UserID,
		Status:      domain.OrderStatusConfirmed,
	}
	for _, l := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *OrdersMock) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *OrdersMock) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *OrdersMock) UpdateStatus(ctx context.Context, userID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, service.ErrInvalidStatus
	}
	o, err := m.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

type AuthMock struct {
	users map[string]string // email -> password
}

func (m *AuthMock) Signup(_ context.Context, name, email, password string) (*domain.User, string, error) {
	if _, ok := m.users[email]; ok {
		return nil, "", repository.ErrUserExists
	}
	m.users[email] = password
	return &domain.User{ID: "u-" + email, Name: name, Email: email}, "token-" + email, nil
}

func (m *AuthMock) Login(_ context.Context, email, password string) (*domain.User, string, error) {
	if pw, ok := m.users[email]; !ok || pw != password {
		return nil, "", service.ErrInvalidCredentials
	}
	return &domain.User{ID: "u-" + email, Email: email}, "token-" + email, nil
}

// TokensMock accepts tokens of the form "valid-<userID>".
type TokensMock struct{}

func (TokensMock) ParseToken(token string) (string, error) {
	const prefix = "valid-"
	if len(token) > len(prefix) && token[:len(prefix)] == prefix {
		return token[len(prefix):], nil
	}
	return "", service.ErrInvalidToken
}

// failingStore wraps a MemoryStore and fails writes while failWrites is set.
type failingStore struct {
	*cart.MemoryStore
	mu         sync.Mutex
	failWrites bool
}

func (f *failingStore) Save(ctx context.Context, key string, state domain.CartState) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return f.MemoryStore.Save(ctx, key, state)
}
