package domain

import "time"

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	UnitPrice    int64     `json:"unit_price"`
	Stock        int       `json:"stock"`
	InitialStock int       `json:"initial_stock"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
