package domain

import "time"

type Product struct {
	ID              string    `bson:"_id" json:"_id"`
	Name            string    `bson:"name" json:"name"`
	Price           float64   `bson:"price" json:"price"`
	OfferPrice      *float64  `bson:"offer_price,omitempty" json:"offerPrice,omitempty"`
	DiscountPercent *int      `bson:"discount_percent,omitempty" json:"discountPercent,omitempty"`
	Category        string    `bson:"category" json:"category"`
	Description     string    `bson:"description" json:"description"`
	Image           string    `bson:"image" json:"image"`
	Stock           int       `bson:"stock" json:"stock"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt,omitempty"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt,omitempty"`
}

// EffectivePrice is the offer price when one is set, otherwise the base price.
// A zero offer price counts as unset.
func (p Product) EffectivePrice() float64 {
	if p.OfferPrice != nil && *p.OfferPrice > 0 {
		return *p.OfferPrice
	}
	return p.Price
}
