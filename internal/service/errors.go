package service

import (
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrEmptyCart                   = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity             = errors.New("quantity must be at least 1")
	ErrInvalidEmail                = errors.New("a valid customer email is required")
	ErrInvalidPrice                = errors.New("price must not be negative")
	ErrAmountOutOfRange            = errors.New("order amount out of range")
	ErrProductNotFound             = errors.New("product not found")
	ErrProductInactive             = errors.New("product is not available for purchase")
	ErrInsufficientStock           = errors.New("insufficient stock")
	ErrPaymentIntentCreationFailed = errors.New("payment intent creation failed")
	ErrUnknownPayment              = errors.New("payment does not match any order")
	ErrOrderNotPayable             = errors.New("order can no longer be paid")
	ErrOrderNotFound               = errors.New("order not found")
	ErrInvalidStatus               = errors.New("unknown order status")
	ErrIllegalTransition           = errors.New("illegal transition of order status")
	ErrStatusConflict              = errors.New("order status changed concurrently")
)

// LineError ties a cart validation failure to the offending product.
type LineError struct {
	ProductID string
	Err       error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type TransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
