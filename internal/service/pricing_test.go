package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalizeLines(t *testing.T) {
	lines, err := NormalizeLines([]domain.CartLine{
		{ProductID: "B", Quantity: 1},
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 4},
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: "B", Quantity: 5}, {ProductID: "A", Quantity: 2}}, lines)

	_, err = NormalizeLines(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = NormalizeLines([]domain.CartLine{{ProductID: "", Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = NormalizeLines([]domain.CartLine{{ProductID: "P1", Quantity: math.MaxInt}, {ProductID: "P1", Quantity: 2}})
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, "P1", lineErr.ProductID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPriceCart_RejectsOverflowingQuantities(t *testing.T) {
	pricer := NewPricer(newMockCatalog(product("P1", 2499, 5)))

	cart, err := pricer.PriceCart(context.Background(), []domain.CartLine{
		{ProductID: "P1", Quantity: math.MaxInt},
		{ProductID: "P1", Quantity: 2},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Nil(t, cart)
}

func TestPriceCart_RejectsOverflowingTotals(t *testing.T) {
	pricer := NewPricer(newMockCatalog(
		product("P1", math.MaxInt64/2, 2),
		product("P2", math.MaxInt64/2, 2),
		product("P3", 1, 2),
	))

	_, err := pricer.PriceCart(context.Background(), []domain.CartLine{{ProductID: "P1", Quantity: 2}, {ProductID: "P2", Quantity: 1}})
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = pricer.PriceCart(context.Background(), []domain.CartLine{{ProductID: "P1", Quantity: 1}, {ProductID: "P2", Quantity: 1}, {ProductID: "P3", Quantity: 2}})
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestPriceCart_SnapshotsCurrentPrice(t *testing.T) {
	catalog := newMockCatalog(product("P1", 2499, 10))
	pricer := NewPricer(catalog)

	cart, err := pricer.PriceCart(context.Background(), []domain.CartLine{{ProductID: "P1", Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, catalog.UpdatePrice(context.Background(), "P1", 2999))

	assert.Equal(t, int64(2499), cart.Items[0].UnitPrice)
	assert.Equal(t, int64(4998), cart.Subtotal)
}

func TestPriceCart_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "products")
		products := make([]*domain.Product, n)
		for i := range products {
			products[i] = product(fmt.Sprintf("P%d", i),
				rapid.Int64Range(0, 1_000_000).Draw(t, "price"),
				rapid.IntRange(0, 50).Draw(t, "stock"))
		}
		catalog := newMockCatalog(products...)

		lines := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) domain.CartLine {
			return domain.CartLine{
				ProductID: fmt.Sprintf("P%d", rapid.IntRange(0, n-1).Draw(t, "idx")),
				Quantity:  rapid.IntRange(1, 20).Draw(t, "qty"),
			}
		}), 1, 10).Draw(t, "lines")

		wanted := make(map[string]int)
		for _, l := range lines {
			wanted[l.ProductID] += l.Quantity
		}

		cart, err := NewPricer(catalog).PriceCart(context.Background(), lines)

		overdrawn := false
		for id, qty := range wanted {
			if qty > catalog.Products[id].Stock {
				overdrawn = true
			}
		}
		if overdrawn {
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("expected insufficient stock, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cart.Items) != len(wanted) {
			t.Fatalf("items %d, distinct products %d", len(cart.Items), len(wanted))
		}
		var sum int64
		for _, it := range cart.Items {
			if it.Quantity != wanted[it.ProductID] {
				t.Fatalf("product %s quantity %d, want %d", it.ProductID, it.Quantity, wanted[it.ProductID])
			}
			if it.LineTotal != it.UnitPrice*int64(it.Quantity) {
				t.Fatalf("line total %d != %d * %d", it.LineTotal, it.UnitPrice, it.Quantity)
			}
			sum += it.LineTotal
		}
		if cart.Subtotal != sum || cart.Total != cart.Subtotal {
			t.Fatalf("subtotal %d total %d, line sum %d", cart.Subtotal, cart.Total, sum)
		}
	})
}
