package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
)

// reserveStock decrements stock line by line. When a line fails, the lines
// already decremented are given back before returning.
func (s *OrderService) reserveStock(ctx context.Context, lines []domain.LineRequest) error {
	for i, l := range lines {
		err := s.products.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err == nil {
			continue
		}

		s.releaseStock(ctx, lines[:i])
		if isStockError(err) {
			// stock moved between validation and reservation
			return s.stockErrorFor(ctx, l, err)
		}
		return fmt.Errorf("failed to reserve stock for %s: %w", l.ProductID, err)
	}
	return nil
}

func (s *OrderService) releaseStock(ctx context.Context, lines []domain.LineRequest) {
	// compensation must run even if the request was cancelled
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := s.products.IncrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			s.log.ErrorContext(ctx, "release stock failed",
				"product_id", l.ProductID, "quantity", l.Quantity, "error", err)
		}
	}
}

func (s *OrderService) stockErrorFor(ctx context.Context, l domain.LineRequest, cause error) error {
	failure := domain.StockFailure{
		ProductID:         l.ProductID,
		RequestedQuantity: l.Quantity,
		Message:           "product not found",
	}
	if p, err := s.products.GetProduct(ctx, l.ProductID); err == nil {
		failure.ProductName = p.Name
		failure.AvailableStock = p.Stock
		failure.Message = fmt.Sprintf("only %d left in stock", p.Stock)
	}
	s.log.WarnContext(ctx, "stock reservation lost a race", "product_id", l.ProductID, "error", cause)
	return &StockError{Failures: []domain.StockFailure{failure}}
}
