package domain

type CartLine struct {
	ProductID string
	Quantity  int
}

type CheckoutRequest struct {
	Lines           []CartLine
	Email           string
	FirstName       string
	LastName        string
	ShippingAddress *Address
	BillingAddress  *Address
}

type CheckoutResult struct {
	Order        *Order
	ClientSecret string
}

// PricedCart is the output of pricing: line items carrying price snapshots, not yet bound to an order.
type PricedCart struct {
	Items    []OrderItem
	Subtotal int64
	Total    int64
}

type Customer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}
