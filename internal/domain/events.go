package domain

import "time"

const EventTypeOrderPaid = "order.paid"

type OrderPaidItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// OrderPaidEvent is the outbox payload written by the fulfillment transaction.
type OrderPaidEvent struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderPaidItem `json:"items"`
	Total         int64           `json:"total"`
	Currency      string          `json:"currency"`
	PaidAt        time.Time       `json:"paid_at"`
}

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	items := make([]OrderPaidItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderPaidItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	ev := OrderPaidEvent{
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		CustomerEmail: o.CustomerEmail,
		Items:         items,
		Total:         o.Total,
		Currency:      o.Currency,
	}
	if o.PaidAt != nil {
		ev.PaidAt = *o.PaidAt
	}
	return ev
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}
