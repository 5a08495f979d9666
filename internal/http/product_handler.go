package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog  ProductCatalog
	currency string
	timeout  time.Duration
}

func NewProductHandler(catalog ProductCatalog, currency string, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		currency: currency,
		timeout:  timeout,
	}
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := ProductsResponse{Products: make([]ProductResponse, len(products))}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p, h.currency)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product, h.currency))
}
