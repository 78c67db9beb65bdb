package http

import (
	"errors"
	"net/http"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/go-chi/chi/v5"
)

const (
	// DeviceHeader identifies the client device owning a cart session.
	DeviceHeader = "X-Cart-Device"
	// PersistedHeader is set to "false" when the cart could not be stored.
	PersistedHeader = "X-Cart-Persisted"
)

type SessionProvider interface {
	Get(deviceID string) *cart.Session
}

type CartHandler struct {
	sessions SessionProvider
	catalog  Catalog
}

func NewCartHandler(sessions SessionProvider, catalog Catalog) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  catalog,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity" validate:"required"`
}

var errLoadFailed = errors.New("cart could not be loaded")

// session returns the device's session bound to the scope of the caller.
// A false return means the response has been written.
func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*cart.Session, bool) {
	deviceID := r.Header.Get(DeviceHeader)
	if deviceID == "" {
		respondError(w, http.StatusBadRequest, DeviceHeader+" header is required")
		return nil, false
	}

	scope := cart.Guest()
	if userID := getUserIDFromContext(r.Context()); userID != "" {
		scope = cart.User(userID)
	}

	s := h.sessions.Get(deviceID)
	t, err := s.Bind(r.Context(), scope)
	if err != nil {
		if t.To != cart.BoundTo(scope) {
			handleServiceError(w, r, errors.Join(errLoadFailed, err))
			return nil, false
		}
		// bound, but the transition's snapshots were not all written
		w.Header().Set(PersistedHeader, "false")
	}
	return s, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, state domain.CartState, err error) {
	if err != nil {
		w.Header().Set(PersistedHeader, "false")
	}
	respondJSON(w, http.StatusOK, state)
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondCart(w, s.State(), nil)
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	state, err := s.Dispatch(r.Context(), cart.AddItem{Product: *product})
	h.respondCart(w, state, err)
}

// PUT /api/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Dispatch(r.Context(), cart.UpdateQuantity{
		ProductID: chi.URLParam(r, "productId"),
		Quantity:  *req.Quantity,
	})
	h.respondCart(w, state, err)
}

// DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Dispatch(r.Context(), cart.RemoveItem{ProductID: chi.URLParam(r, "productId")})
	h.respondCart(w, state, err)
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := s.Dispatch(r.Context(), cart.ClearCart{})
	h.respondCart(w, state, err)
}
