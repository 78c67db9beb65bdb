// Package seed holds the demo catalog and loads it into the product store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrInvalidPrice = errors.New("price must be positive")
	ErrInvalidOffer = errors.New("offer price must not exceed price")
	ErrInvalidStock = errors.New("stock must not be negative")
)

// ProductWriter is the part of the product repository seeding needs.
type ProductWriter interface {
	UpsertProduct(ctx context.Context, p *domain.Product) error
}

func pf(v float64) *float64 { return &v }
func pi(v int) *int         { return &v }

// Catalog returns a fresh copy of the demo products.
func Catalog() []domain.Product {
	return []domain.Product{
		{
			ID: "1", Name: "Wireless Headphones", Price: 79.99, OfferPrice: pf(63.99), DiscountPercent: pi(20),
			Description: "High-quality wireless headphones with noise cancellation technology. Features include active noise cancellation, 30-hour battery life, and premium comfort padding.",
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300",
			Category:    "Electronics", Stock: 15,
		},
		{
			ID: "2", Name: "Coffee Mug", Price: 12.99, OfferPrice: pf(9.99), DiscountPercent: pi(23),
			Description: "Ceramic coffee mug with heat retention technology. Perfect for your morning coffee or tea. Dishwasher and microwave safe.",
			Image:       "https://images.unsplash.com/photo-1544787219-7f47ccb76574?w=300",
			Category:    "Kitchen", Stock: 25,
		},
		{
			ID: "3", Name: "Running Shoes", Price: 89.99, OfferPrice: pf(71.99), DiscountPercent: pi(20),
			Description: "Comfortable running shoes with superior cushioning and arch support. Breathable mesh upper and durable rubber outsole for maximum performance.",
			Image:       "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=300",
			Category:    "Sports", Stock: 12,
		},
		{
			ID: "4", Name: "Backpack", Price: 45.99, OfferPrice: pf(36.79), DiscountPercent: pi(20),
			Description: "Durable backpack perfect for travel and daily use. Multiple compartments, padded laptop sleeve, and water-resistant material.",
			Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=300",
			Category:    "Accessories", Stock: 8,
		},
		{
			ID: "5", Name: "Smartphone Case", Price: 19.99, OfferPrice: pf(15.99), DiscountPercent: pi(20),
			Description: "Protective smartphone case with wireless charging support. Drop-tested protection with crystal clear back and flexible bumper.",
			Image:       "https://images.unsplash.com/photo-1556656793-08538906a9f8?w=300",
			Category:    "Electronics", Stock: 30,
		},
		{
			ID: "6", Name: "Water Bottle", Price: 24.99, OfferPrice: pf(19.99), DiscountPercent: pi(20),
			Description: "Insulated water bottle keeps drinks cold for 24 hours and hot for 12 hours. BPA-free stainless steel construction with leak-proof lid.",
			Image:       "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=300",
			Category:    "Sports", Stock: 20,
		},
		{
			ID: "7", Name: "Desk Lamp", Price: 34.99, OfferPrice: pf(27.99), DiscountPercent: pi(20),
			Description: "LED desk lamp with adjustable brightness and color temperature. Touch control, USB charging port, and eye-caring technology.",
			Image:       "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=300",
			Category:    "Home", Stock: 14,
		},
		{
			ID: "8", Name: "Bluetooth Speaker", Price: 59.99, OfferPrice: pf(47.99), DiscountPercent: pi(20),
			Description: "Portable Bluetooth speaker with premium sound quality. 360-degree sound, waterproof design, and 12-hour battery life.",
			Image:       "https://images.unsplash.com/photo-1582978571763-2d039e56f0c3?w=300",
			Category:    "Electronics", Stock: 18,
		},
		{
			ID: "9", Name: "Yoga Mat", Price: 29.99,
			Description: "Non-slip yoga mat perfect for home workouts. Extra thick cushioning, eco-friendly materials, and comes with carrying strap.",
			Image:       "https://images.unsplash.com/photo-1544367567-0f2fcb009e0b?w=300",
			Category:    "Sports", Stock: 22,
		},
		{
			ID: "10", Name: "Notebook Set", Price: 16.99,
			Description: "Set of 3 premium notebooks for writing and sketching. Hardcover with elastic closure, lined and dotted pages, and pen holder.",
			Image:       "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?w=300",
			Category:    "Stationery", Stock: 35,
		},
	}
}

// RandomizeDiscounts gives every product a discount of 10 to 30 percent and
// derives its offer price, rounded to cents.
func RandomizeDiscounts(products []domain.Product, rng *rand.Rand) {
	for i := range products {
		d := rng.Intn(21) + 10
		products[i].DiscountPercent = pi(d)
		products[i].OfferPrice = pf(OfferPrice(products[i].Price, d))
	}
}

func OfferPrice(price float64, discountPercent int) float64 {
	return math.Round(price*(1-float64(discountPercent)/100)*100) / 100
}

func Validate(p domain.Product) error {
	if p.Price <= 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrInvalidPrice)
	}
	if p.OfferPrice != nil && *p.OfferPrice > p.Price {
		return fmt.Errorf("product %s: %w", p.ID, ErrInvalidOffer)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrInvalidStock)
	}
	return nil
}

// Load validates every product first and writes nothing if any is invalid.
func Load(ctx context.Context, w ProductWriter, products []domain.Product) error {
	for _, p := range products {
		if err := Validate(p); err != nil {
			return err
		}
	}
	for i := range products {
		if err := w.UpsertProduct(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}
	return nil
}
