package domain

// CartLine pairs a product snapshot with a quantity. Quantity is always >= 1
// inside a CartState; reaching 0 removes the line.
type CartLine struct {
	Product  Product `bson:"product" json:"product"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// CartState is an ordered list of lines plus the total derived from them.
// Total is never set independently of Lines.
type CartState struct {
	Lines []CartLine `bson:"items" json:"items"`
	Total float64    `bson:"total" json:"total"`
}

// IsEmpty reports whether the cart has no lines.
func (s CartState) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Quantity returns the quantity held for productID, or 0.
func (s CartState) Quantity(productID string) int {
	for _, l := range s.Lines {
		if l.Product.ID == productID {
			return l.Quantity
		}
	}
	return 0
}
