package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentPlan defines the model for the 'investment_plans' table
type InvestmentPlan struct {
	ID           int64           `json:"id" db:"id"`
	Slug         string          `json:"slug" db:"slug"`
	Name         string          `json:"name" db:"name"`
	MinAmount    decimal.Decimal `json:"minAmount" db:"min_amount"`
	DurationDays int             `json:"durationDays" db:"duration_days"`
	ReturnRate   decimal.Decimal `json:"returnRate" db:"return_rate"` // annual, percent
	IsActive     bool            `json:"isActive" db:"is_active"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

const InvestmentStatusActive = "active"

// Investment defines the model for the 'investments' table
type Investment struct {
	ID             int64           `json:"id" db:"id"`
	UserID         int64           `json:"userId" db:"user_id"`
	PlanID         int64           `json:"planId" db:"plan_id"`
	OrderID        int64           `json:"orderId" db:"order_id"`
	Principal      decimal.Decimal `json:"principal" db:"principal"`
	CurrentValue   decimal.Decimal `json:"currentValue" db:"current_value"`
	ExpectedReturn decimal.Decimal `json:"expectedReturn" db:"expected_return"`
	MaturityDate   time.Time       `json:"maturityDate" db:"maturity_date"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}
