package types

import "time"

// OrderStatus tracks fulfilment of an order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

// Order is a purchase placed by an authenticated user.
type Order struct {
	ID int64 `json:"id" db:"id"`

	// UserID is the human-readable identifier of the owner, taken from the
	// caller's token.
	UserID string `json:"userId" db:"user_id"`

	Items           []OrderItem `json:"items" db:"items"`
	ShippingAddress string      `json:"shippingAddress" db:"shipping_address"`
	City            string      `json:"city" db:"city"`
	Country         string      `json:"country" db:"country"`
	Phone           string      `json:"phone" db:"phone"`
	Status          OrderStatus `json:"status" db:"status"`

	// TotalPrice is the sum of item price times quantity at order time.
	TotalPrice int64 `json:"totalPrice" db:"total_price"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// OrderItem is a single line of an order. UnitPrice is copied from the
// product when the order is placed.
type OrderItem struct {
	ProductID int   `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}
