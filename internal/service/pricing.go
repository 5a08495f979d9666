package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

// Pricer validates a cart against the live catalog and snapshots prices.
// It only reads.
type Pricer struct {
	products ProductReader
}

func NewPricer(products ProductReader) *Pricer {
	return &Pricer{products: products}
}

// NormalizeLines rejects empty carts and non-positive quantities and merges
// repeated product ids, keeping first-seen order.
func NormalizeLines(lines []domain.CartLine) ([]domain.CartLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	merged := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrProductNotFound}
		}
		if line.Quantity < 1 {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrInvalidQuantity}
		}
		if i, ok := index[line.ProductID]; ok {
			// no catalog holds more than math.MaxInt units
			if line.Quantity > math.MaxInt-merged[i].Quantity {
				return nil, &LineError{ProductID: line.ProductID, Err: ErrInsufficientStock}
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func (p *Pricer) PriceCart(ctx context.Context, lines []domain.CartLine) (*domain.PricedCart, error) {
	lines, err := NormalizeLines(lines)
	if err != nil {
		return nil, err
	}

	cart := &domain.PricedCart{Items: make([]domain.OrderItem, 0, len(lines))}
	for _, line := range lines {
		product, err := p.products.GetProduct(ctx, line.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrProductNotFound}
		}
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		if !product.IsActive {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrProductInactive}
		}
		if line.Quantity > product.Stock {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrInsufficientStock}
		}

		if product.UnitPrice > 0 && int64(line.Quantity) > math.MaxInt64/product.UnitPrice {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrAmountOutOfRange}
		}
		lineTotal := product.UnitPrice * int64(line.Quantity)
		if lineTotal > math.MaxInt64-cart.Subtotal {
			return nil, &LineError{ProductID: line.ProductID, Err: ErrAmountOutOfRange}
		}
		cart.Items = append(cart.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.UnitPrice,
			LineTotal:   lineTotal,
		})
		cart.Subtotal += lineTotal
	}
	// no tax or shipping yet
	cart.Total = cart.Subtotal
	return cart, nil
}
