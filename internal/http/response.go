package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type errorMapping struct {
	target error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{service.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{service.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{service.ErrAmountOutOfRange, http.StatusBadRequest, "amount_out_of_range"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{service.ErrProductInactive, http.StatusUnprocessableEntity, "product_inactive"},
	{service.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{service.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{service.ErrStatusConflict, http.StatusConflict, "status_conflict"},
	{service.ErrPaymentIntentCreationFailed, http.StatusBadGateway, "payment_intent_failed"},
}

// handleServiceError converts service errors to HTTP responses. Unknown errors
// are logged and reported as 500 without internal detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := ErrorResponse{Error: m.target.Error(), Code: m.code}
		var lineErr *service.LineError
		if errors.As(err, &lineErr) {
			resp.Details = "product_id=" + lineErr.ProductID
		}
		var transErr *service.TransitionError
		if errors.As(err, &transErr) {
			resp.Details = string(transErr.From) + " -> " + string(transErr.To)
		}
		respondJSON(w, m.status, resp)
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", getRequestID(r.Context())),
		slog.Any("error", err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
