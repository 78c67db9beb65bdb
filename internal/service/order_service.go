package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	r "github.com/fjod/go_shop/internal/repository"
	"github.com/google/uuid"
)

// OrderPublisher announces placed orders to the rest of the system.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error
}

// PlaceOrderRequest describes an order. An empty UserID is a guest checkout.
type PlaceOrderRequest struct {
	UserID  string
	Items   []domain.LineRequest
	Address domain.Address
	// ClientTotal is what the client believes the order costs. It is logged
	// when it disagrees with the computed total, never stored.
	ClientTotal float64
}

type OrderService struct {
	products  r.ProductRepository
	orders    r.OrderRepository
	publisher OrderPublisher
	log       *slog.Logger
	now       func() time.Time
}

func NewOrderService(products r.ProductRepository, orders r.OrderRepository, publisher OrderPublisher, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		products:  products,
		orders:    orders,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// PlaceOrder validates stock, reserves it, stores the order and publishes
// an OrderPlaced event. A shortfall is reported as *StockError.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	result, products, err := s.validate(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &StockError{Failures: result.Errors}
	}

	if err := s.reserveStock(ctx, req.Items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     fmt.Sprintf("ORD-%d", now.UnixMilli()),
		UserID:          req.UserID,
		Items:           orderItems(req.Items, products),
		ShippingAddress: req.Address,
		Status:          domain.OrderStatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.TotalAmount = orderTotal(order.Items)
	if math.Abs(order.TotalAmount-req.ClientTotal) >= 0.01 {
		s.log.InfoContext(ctx, "client total differs from computed total",
			"client_total", req.ClientTotal, "total", order.TotalAmount)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.releaseStock(ctx, req.Items)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publish(ctx, order)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// other users' orders, and guest orders, are reported as missing
	if userID == "" || order.UserID != userID {
		return nil, r.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return []*domain.Order{}, nil
	}
	return s.orders.ListOrdersByUserID(ctx, userID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	current, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !canTransition(current.Status, status) {
		return nil, IllegalTransitionError
	}
	return s.orders.UpdateStatus(ctx, orderID, status)
}

// canTransition allows moving forward through the fulfilment steps and
// cancelling anything not yet shipped.
func canTransition(from, to domain.OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case domain.OrderStatusPending:
		return to == domain.OrderStatusConfirmed || to == domain.OrderStatusCancelled
	case domain.OrderStatusConfirmed:
		return to == domain.OrderStatusShipped || to == domain.OrderStatusCancelled
	case domain.OrderStatusShipped:
		return to == domain.OrderStatusDelivered
	}
	return false
}

func (s *OrderService) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	ev := domain.OrderPlaced{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.CreatedAt,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		// the order is stored; consumers only lose the cart cleanup
		s.log.ErrorContext(ctx, "publish order placed failed", "order_id", order.ID, "error", err)
	}
}

func orderItems(lines []domain.LineRequest, products map[string]*domain.Product) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p := products[l.ProductID]
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Price:       p.EffectivePrice(),
		})
	}
	return items
}

func orderTotal(items []domain.OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return math.Round(total*100) / 100
}

func isStockError(err error) bool {
	return errors.Is(err, r.ErrInsufficientStock) || errors.Is(err, r.ErrProductNotFound)
}
