// Package ledger maintains the append-only wallet transaction log and the
// cached wallet balance that projects its tail.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

// Entry is one balance movement to record.
type Entry struct {
	UserID      int64
	Type        models.TransactionType
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// Append records e and moves the cached balance to the new balanceAfter.
//
// This is the only function that modifies a balance. It takes a store.Wallets,
// which is only reachable inside Store.WithTx, so every call shares the unit
// of work of whatever else the caller is mutating. The wallet row stays locked
// until that unit of work ends.
func Append(ctx context.Context, tx store.Wallets, e Entry) (models.WalletTransaction, error) {
	if !e.Type.Valid() {
		return models.WalletTransaction{}, apperr.InvalidRequest("unknown transaction type %q", e.Type)
	}

	// 1. --- Lock the wallet row and read the current balance ---
	wallet, err := tx.LockWallet(ctx, e.UserID)
	if err != nil {
		return models.WalletTransaction{}, fmt.Errorf("lock wallet %d: %w", e.UserID, err)
	}

	// 2. --- Chain onto the tail ---
	before := wallet.Balance
	after := before.Add(e.Amount)
	if after.IsNegative() {
		return models.WalletTransaction{}, apperr.InsufficientFunds()
	}

	// 3. --- Append the entry, then move the projection ---
	now := time.Now()
	entry := models.WalletTransaction{
		UserID:        e.UserID,
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     e.Reference,
		Description:   e.Description,
		CreatedAt:     now,
	}
	if err := tx.InsertTransaction(ctx, &entry); err != nil {
		return models.WalletTransaction{}, fmt.Errorf("insert %s transaction: %w", e.Type, err)
	}
	if err := tx.SetWalletBalance(ctx, e.UserID, after, now); err != nil {
		return models.WalletTransaction{}, fmt.Errorf("update wallet balance: %w", err)
	}

	return entry, nil
}

// BalanceReader is the read side needed by GetBalance and GetHistory.
type BalanceReader interface {
	GetWallet(ctx context.Context, userID int64) (models.WalletAccount, error)
	ListTransactions(ctx context.Context, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error)
}

// GetBalance returns the cached balance. Users without a wallet row have zero.
func GetBalance(ctx context.Context, r BalanceReader, userID int64) (decimal.Decimal, error) {
	w, err := r.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get wallet %d: %w", userID, err)
	}
	return w.Balance, nil
}

// GetHistory returns the user's entries newest first, optionally filtered by type.
func GetHistory(ctx context.Context, r BalanceReader, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error) {
	if txType != "" && !txType.Valid() {
		return nil, apperr.InvalidRequest("unknown transaction type %q", txType)
	}
	entries, err := r.ListTransactions(ctx, userID, txType)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %d: %w", userID, err)
	}
	if entries == nil {
		entries = []models.WalletTransaction{}
	}
	return entries, nil
}

// Verify checks the chain invariant over entries in oldest-first order:
// every entry's balanceAfter is balanceBefore + amount, and every entry
// starts where the previous one ended.
func Verify(entries []models.WalletTransaction) error {
	for i, e := range entries {
		if !e.BalanceBefore.Add(e.Amount).Equal(e.BalanceAfter) {
			return fmt.Errorf("entry %d: %s + %s != %s", e.ID, e.BalanceBefore, e.Amount, e.BalanceAfter)
		}
		if i > 0 && !entries[i-1].BalanceAfter.Equal(e.BalanceBefore) {
			return fmt.Errorf("entry %d does not chain onto entry %d", e.ID, entries[i-1].ID)
		}
	}
	return nil
}
