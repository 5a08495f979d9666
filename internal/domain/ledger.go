package domain

import "time"

const (
	LedgerReasonOrder   = "ORDER"
	LedgerReasonRestock = "RESTOCK"
)

// LedgerEntry is one append-only stock movement. Delta is negative for sales.
type LedgerEntry struct {
	ID        string
	ProductID string
	OrderID   string
	Delta     int
	Reason    string
	CreatedAt time.Time
}

// StockDrift describes a product whose stock counter disagrees with its ledger.
type StockDrift struct {
	ProductID    string
	InitialStock int
	LedgerSum    int
	Stock        int
}

func (d StockDrift) Expected() int {
	return d.InitialStock + d.LedgerSum
}
