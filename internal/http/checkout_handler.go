package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/go-chi/chi/v5"
)

type Orders interface {
	Validate(ctx context.Context, lines []domain.LineRequest) (domain.ValidationResult, error)
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, userID, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders   Orders
	sessions SessionProvider
}

// NewOrdersHandler builds the order endpoints. sessions may be nil, in which
// case placing an order leaves live carts alone.
func NewOrdersHandler(orders Orders, sessions SessionProvider) *OrdersHandler {
	return &OrdersHandler{orders: orders, sessions: sessions}
}

// LineItemDTO accepts both {productId, quantity} and the older
// {product: {_id}, quantity} shape.
type LineItemDTO struct {
	ProductID string `json:"productId"`
	Product   *struct {
		ID string `json:"_id"`
	} `json:"product,omitempty"`
	Quantity int `json:"quantity"` // quantities below 1 are reported per line by validation
}

func (i LineItemDTO) productID() string {
	if i.ProductID != "" {
		return i.ProductID
	}
	if i.Product != nil {
		return i.Product.ID
	}
	return ""
}

type ValidateCartRequestDTO struct {
	Items []LineItemDTO `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderRequestDTO struct {
	Items   []LineItemDTO   `json:"items" validate:"required,min=1,dive"`
	Address *domain.Address `json:"address" validate:"required"`
	Total   float64         `json:"total"`
}

type CreateOrderResponseDTO struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

func toLines(items []LineItemDTO) ([]domain.LineRequest, bool) {
	lines := make([]domain.LineRequest, 0, len(items))
	for _, it := range items {
		id := it.productID()
		if id == "" {
			return nil, false
		}
		lines = append(lines, domain.LineRequest{ProductID: id, Quantity: it.Quantity})
	}
	return lines, true
}

// POST /api/cart/validate
func (h *OrdersHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	var req ValidateCartRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	lines, ok := toLines(req.Items)
	if !ok {
		respondError(w, http.StatusBadRequest, "productId is required")
		return
	}

	result, err := h.orders.Validate(r.Context(), lines)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// POST /api/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req CreateOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	lines, ok := toLines(req.Items)
	if !ok {
		respondError(w, http.StatusBadRequest, "productId is required")
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		UserID:      userID,
		Items:       lines,
		Address:     *req.Address,
		ClientTotal: req.Total,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.clearLiveCart(r, userID)
	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		Message: "Order placed successfully",
		Order:   order,
	})
}

// clearLiveCart empties the cart of the device that placed the order.
// Orders without a user clear the device's guest cart.
func (h *OrdersHandler) clearLiveCart(r *http.Request, userID string) {
	deviceID := r.Header.Get(DeviceHeader)
	if h.sessions == nil || deviceID == "" {
		return
	}
	scope := cart.Guest()
	if userID != "" {
		scope = cart.User(userID)
	}
	s := h.sessions.Get(deviceID)
	if _, err := s.Bind(r.Context(), scope); err != nil {
		return // logged by the session
	}
	_, _ = s.Dispatch(r.Context(), cart.ClearCart{})
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), getUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PATCH /api/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), getUserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
