package http

import (
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notification"
)

type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price"`
	DisplayPrice string `json:"display_price"`
	Stock        int    `json:"stock"`
	IsActive     bool   `json:"is_active"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

type OrderResponse struct {
	ID               string             `json:"id"`
	CustomerID       string             `json:"customer_id"`
	CustomerEmail    string             `json:"customer_email"`
	Status           string             `json:"status"`
	Subtotal         int64              `json:"subtotal"`
	Total            int64              `json:"total"`
	DisplayTotal     string             `json:"display_total"`
	Currency         string             `json:"currency"`
	GatewayPaymentID string             `json:"gateway_payment_id"`
	IsPaid           bool               `json:"is_paid"`
	PaidAt           *time.Time         `json:"paid_at,omitempty"`
	ShippingAddress  *domain.Address    `json:"shipping_address,omitempty"`
	BillingAddress   *domain.Address    `json:"billing_address,omitempty"`
	Items            []domain.OrderItem `json:"items"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CheckoutItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequestDTO struct {
	Items           []CheckoutItemDTO `json:"items"`
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	ShippingAddress *domain.Address   `json:"shipping_address"`
	BillingAddress  *domain.Address   `json:"billing_address"`
}

type CheckoutResponseDTO struct {
	Order        OrderResponse `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

type WebhookResponseDTO struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

type StatusUpdateDTO struct {
	Status string `json:"status"`
}

type PriceUpdateDTO struct {
	UnitPrice *int64 `json:"unit_price"`
}

type RestockDTO struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

type LedgerEntryResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type StatsResponse struct {
	TotalOrders    int            `json:"total_orders"`
	ByStatus       map[string]int `json:"by_status"`
	PaidRevenue    int64          `json:"paid_revenue"`
	DisplayRevenue string         `json:"display_revenue"`
	Currency       string         `json:"currency"`
}

type DriftResponse struct {
	ProductID    string `json:"product_id"`
	InitialStock int    `json:"initial_stock"`
	LedgerSum    int    `json:"ledger_sum"`
	Expected     int    `json:"expected"`
	Stock        int    `json:"stock"`
}

type ReconcileResponse struct {
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

func toProductResponse(p *domain.Product, currency string) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		UnitPrice:    p.UnitPrice,
		DisplayPrice: notification.FormatAmount(p.UnitPrice, currency),
		Stock:        p.Stock,
		IsActive:     p.IsActive,
	}
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return OrderResponse{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		CustomerEmail:    o.CustomerEmail,
		Status:           o.Status.String(),
		Subtotal:         o.Subtotal,
		Total:            o.Total,
		DisplayTotal:     notification.FormatAmount(o.Total, o.Currency),
		Currency:         o.Currency,
		GatewayPaymentID: o.GatewayPaymentID,
		IsPaid:           o.IsPaid,
		PaidAt:           o.PaidAt,
		ShippingAddress:  o.ShippingAddress,
		BillingAddress:   o.BillingAddress,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
