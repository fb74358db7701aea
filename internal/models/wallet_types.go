package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxOrderPayment TransactionType = "order_payment"
	TxCashback     TransactionType = "cashback"
	TxInvestment   TransactionType = "investment"
	TxWithdrawal   TransactionType = "withdrawal"
	TxDeposit      TransactionType = "deposit"
	TxCommission   TransactionType = "commission"
	TxBonus        TransactionType = "bonus"
)

// Valid reports whether t is one of the known ledger entry types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxOrderPayment, TxCashback, TxInvestment, TxWithdrawal, TxDeposit, TxCommission, TxBonus:
		return true
	}
	return false
}

// WalletAccount is the model for the 'wallet_accounts' table.
// Balance is a cached projection of the latest WalletTransaction.BalanceAfter.
type WalletAccount struct {
	UserID    int64           `json:"userId" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// WalletTransaction is the model for the 'wallet_transactions' table
type WalletTransaction struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"userId" db:"user_id"`
	Type          TransactionType `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"` // positive credit, negative debit
	BalanceBefore decimal.Decimal `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter" db:"balance_after"`
	Reference     string          `json:"reference" db:"reference"`
	Description   string          `json:"description" db:"description"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

const CashbackStatusCredited = "credited"

// CashbackRecord is the model for the 'cashback_records' table.
// One row per cashback-bearing WalletTransaction.
type CashbackRecord struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"orderId" db:"order_id"`
	UserID        int64           `json:"userId" db:"user_id"`
	TransactionID int64           `json:"transactionId" db:"transaction_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
