package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralCode is the model for the 'referral_codes' table. One per owner.
type ReferralCode struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"userId" db:"user_id"`
	Code          string          `json:"code" db:"code"`
	TotalEarnings decimal.Decimal `json:"totalEarnings" db:"total_earnings"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// ReferralUse records that a buyer applied a code. (user_id, referral_code_id) is unique.
type ReferralUse struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"userId" db:"user_id"`
	ReferralCodeID int64     `json:"referralCodeId" db:"referral_code_id"`
	OrderID        int64     `json:"orderId" db:"order_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// ReferralCommission is one entry in a referrer's earnings ledger.
type ReferralCommission struct {
	ID             int64           `json:"id" db:"id"`
	ReferralCodeID int64           `json:"referralCodeId" db:"referral_code_id"`
	ReferrerID     int64           `json:"referrerId" db:"referrer_id"`
	BuyerID        int64           `json:"buyerId" db:"buyer_id"`
	OrderID        int64           `json:"orderId" db:"order_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}
