package service

import (
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrStockUnavailable    = errors.New("some items are not available in the requested quantity")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid token")
	IllegalTransitionError = errors.New("illegal transition of order status")
)

// StockError carries the per-line failures behind ErrStockUnavailable.
type StockError struct {
	Failures []domain.StockFailure
}

func (e *StockError) Error() string {
	return ErrStockUnavailable.Error()
}

func (e *StockError) Unwrap() error {
	return ErrStockUnavailable
}
