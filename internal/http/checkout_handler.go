package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
)

const maxCheckoutBody = 1 << 20 // 1MB

type CheckoutHandler struct {
	checkout Checkouter
}

func NewCheckoutHandler(checkout Checkouter) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines := make([]domain.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	// the gateway call carries its own deadline inside the service
	res, err := h.checkout.Checkout(r.Context(), &domain.CheckoutRequest{
		Lines:           lines,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:        toOrderResponse(res.Order),
		ClientSecret: res.ClientSecret,
	})
}
