package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	status  StatusUpdater
	catalog CatalogAdmin
	timeout time.Duration
}

func NewAdminHandler(status StatusUpdater, catalog CatalogAdmin, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		status:  status,
		catalog: catalog,
		timeout: timeout,
	}
}

// PATCH /admin/orders/{order_id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	order, err := h.status.UpdateStatus(ctx, chi.URLParam(r, "order_id"), domain.OrderStatus(strings.ToUpper(req.Status)))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// PUT /admin/products/{product_id}/price
func (h *AdminHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PriceUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UnitPrice == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unit_price is required")
		return
	}

	if err := h.catalog.UpdatePrice(ctx, chi.URLParam(r, "product_id"), *req.UnitPrice); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/products/{product_id}/restock
func (h *AdminHandler) Restock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RestockDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	entry, err := h.catalog.Restock(ctx, chi.URLParam(r, "product_id"), req.Quantity, req.Reason)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, LedgerEntryResponse{
		ID:        entry.ID,
		ProductID: entry.ProductID,
		Delta:     entry.Delta,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	})
}

// GET /admin/inventory/reconcile
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	drifts, err := h.catalog.Reconcile(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := ReconcileResponse{Consistent: len(drifts) == 0, Drifts: make([]DriftResponse, len(drifts))}
	for i, d := range drifts {
		resp.Drifts[i] = DriftResponse{
			ProductID:    d.ProductID,
			InitialStock: d.InitialStock,
			LedgerSum:    d.LedgerSum,
			Expected:     d.Expected(),
			Stock:        d.Stock,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
