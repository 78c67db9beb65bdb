package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	r "github.com/fjod/go_shop/internal/repository"
)

// Validate checks every line against live stock and reports all failures
// rather than stopping at the first.
func (s *OrderService) Validate(ctx context.Context, lines []domain.LineRequest) (domain.ValidationResult, error) {
	result, _, err := s.validate(ctx, lines)
	return result, err
}

func (s *OrderService) validate(ctx context.Context, lines []domain.LineRequest) (domain.ValidationResult, map[string]*domain.Product, error) {
	result := domain.ValidationResult{Valid: true, Errors: []domain.StockFailure{}}
	products := make(map[string]*domain.Product, len(lines))

	for _, l := range lines {
		failure := domain.StockFailure{ProductID: l.ProductID, RequestedQuantity: l.Quantity}

		p, err := s.products.GetProduct(ctx, l.ProductID)
		if errors.Is(err, r.ErrProductNotFound) {
			failure.Message = "product not found"
			result.Errors = append(result.Errors, failure)
			continue
		}
		if err != nil {
			return domain.ValidationResult{}, nil, fmt.Errorf("failed to load product %s: %w", l.ProductID, err)
		}
		products[p.ID] = p

		failure.ProductName = p.Name
		failure.AvailableStock = p.Stock
		switch {
		case l.Quantity < 1:
			failure.Message = ErrInvalidQuantity.Error()
		case l.Quantity > p.Stock:
			failure.Message = fmt.Sprintf("only %d left in stock", p.Stock)
		default:
			continue
		}
		result.Errors = append(result.Errors, failure)
	}

	result.Valid = len(result.Errors) == 0
	return result, products, nil
}
