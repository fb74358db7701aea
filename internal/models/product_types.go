package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// The catalog owns it; checkout only reads it and decrements StockCount.
type Product struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Price        decimal.Decimal `json:"price" db:"price"`
	StockCount   int             `json:"stockCount" db:"stock_count"`
	CashbackRate decimal.Decimal `json:"cashbackRate" db:"cashback_rate"` // percent of price
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}
