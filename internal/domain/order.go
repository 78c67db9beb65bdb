package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Address struct {
	FullName string `bson:"full_name" json:"fullName" validate:"required"`
	Street   string `bson:"street" json:"street" validate:"required"`
	City     string `bson:"city" json:"city" validate:"required"`
	State    string `bson:"state" json:"state" validate:"required"`
	ZipCode  string `bson:"zip_code" json:"zipCode" validate:"required"`
	Phone    string `bson:"phone" json:"phone" validate:"required"`
}

// OrderItem captures the unit price at order time, independent of later
// product changes.
type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"productId"`
	ProductName string  `bson:"product_name" json:"productName"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
}

type Order struct {
	ID              string      `bson:"_id" json:"_id"`
	OrderNumber     string      `bson:"order_number" json:"orderNumber"`
	UserID          string      `bson:"user_id" json:"userId"`
	Items           []OrderItem `bson:"items" json:"items"`
	ShippingAddress Address     `bson:"shipping_address" json:"shippingAddress"`
	TotalAmount     float64     `bson:"total_amount" json:"totalAmount"`
	Status          OrderStatus `bson:"status" json:"status"`
	CreatedAt       time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"updatedAt"`
}

// OrderPlaced is published once an order has been stored.
type OrderPlaced struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	PlacedAt    time.Time   `json:"placed_at"`
}
