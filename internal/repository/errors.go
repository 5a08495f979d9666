package repository

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicatePaymentID = errors.New("order for this payment id already exists")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOrderNotPending    = errors.New("order is no longer pending")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)
