package domain

import "time"

// Money amounts are integer minor units (cents) throughout.

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

type Order struct {
	ID               string
	CustomerID       string
	CustomerEmail    string
	Status           OrderStatus
	Subtotal         int64
	Total            int64
	Currency         string
	GatewayPaymentID string
	ShippingAddress  *Address
	BillingAddress   *Address
	IsPaid           bool
	PaidAt           *time.Time
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ItemsTotal sums the line totals of the order snapshot.
func (o *Order) ItemsTotal() int64 {
	var sum int64
	for _, item := range o.Items {
		sum += item.LineTotal
	}
	return sum
}

type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
	Limit      int
	Offset     int
}

// OrderPage is one page of a listing. Limit and Offset are the values applied
// after defaults and clamping.
type OrderPage struct {
	Orders []*Order
	Total  int
	Limit  int
	Offset int
}

type OrderStats struct {
	TotalOrders int
	ByStatus    map[OrderStatus]int
	PaidRevenue int64
	Currency    string
}
