package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notification"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders?customer_id=
func (h *OrdersHandler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "missing_customer_id", "customer_id is required")
		return
	}
	filter, ok := parsePaging(w, r)
	if !ok {
		return
	}
	filter.CustomerID = customerID
	h.list(w, r, filter)
}

// GET /admin/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parsePaging(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter.Status = domain.OrderStatus(strings.ToUpper(q.Get("status")))
	filter.CustomerID = q.Get("customer_id")
	h.list(w, r, filter)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request, filter domain.OrderFilter) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := OrdersResponse{
		Orders: make([]OrderResponse, len(page.Orders)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i, o := range page.Orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/orders/{order_id} and /admin/orders/{order_id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// GET /admin/stats
func (h *OrdersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.orders.Stats(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for s, n := range stats.ByStatus {
		byStatus[s.String()] = n
	}
	respondJSON(w, http.StatusOK, StatsResponse{
		TotalOrders:    stats.TotalOrders,
		ByStatus:       byStatus,
		PaidRevenue:    stats.PaidRevenue,
		DisplayRevenue: notification.FormatAmount(stats.PaidRevenue, stats.Currency),
		Currency:       stats.Currency,
	})
}

// parsePaging reads limit and offset. Zero limit leaves the default to the store.
func parsePaging(w http.ResponseWriter, r *http.Request) (domain.OrderFilter, bool) {
	var filter domain.OrderFilter
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return filter, false
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_offset", "offset must be a non-negative integer")
			return filter, false
		}
		filter.Offset = n
	}
	return filter, true
}
