// Package wallet exposes the customer-facing wallet operations. Each one is
// its own unit of work around ledger.Append.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/ledger"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	store  store.Store
	logger *zap.Logger
}

func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Summary is the wallet as shown to its owner.
type Summary struct {
	UserID  int64           `json:"userId"`
	Balance decimal.Decimal `json:"balance"`
}

func (s *Service) Balance(ctx context.Context, userID int64) (Summary, error) {
	b, err := ledger.GetBalance(ctx, s.store, userID)
	if err != nil {
		return Summary{}, apperr.Normalize(err)
	}
	return Summary{UserID: userID, Balance: b}, nil
}

func (s *Service) History(ctx context.Context, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error) {
	h, err := ledger.GetHistory(ctx, s.store, userID, txType)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return h, nil
}

// Deposit credits amount to the user's wallet. reference identifies the
// external money movement (bank slip, till receipt).
func (s *Service) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, reference string) (models.WalletTransaction, error) {
	if err := checkAmount(amount); err != nil {
		return models.WalletTransaction{}, err
	}
	return s.move(ctx, userID, models.TxDeposit, amount, reference, "Wallet deposit")
}

// Withdraw debits amount. Overdrawing fails with InsufficientFunds.
func (s *Service) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal, destination string) (models.WalletTransaction, error) {
	if err := checkAmount(amount); err != nil {
		return models.WalletTransaction{}, err
	}
	return s.move(ctx, userID, models.TxWithdrawal, amount.Neg(), destination, "Wallet withdrawal")
}

// checkAmount keeps amounts representable in the DECIMAL(18,2) columns, so
// the stored balance_before + amount = balance_after chain holds.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.InvalidRequest("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperr.InvalidRequest("amount must have at most two decimal places")
	}
	return nil
}

func (s *Service) move(ctx context.Context, userID int64, txType models.TransactionType, amount decimal.Decimal, reference, description string) (models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.FindUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("user")
			}
			return fmt.Errorf("find user: %w", err)
		}
		var err error
		entry, err = ledger.Append(ctx, tx, ledger.Entry{
			UserID:      userID,
			Type:        txType,
			Amount:      amount,
			Reference:   reference,
			Description: description,
		})
		return err
	})
	if err != nil {
		return models.WalletTransaction{}, apperr.Normalize(err)
	}

	s.logger.Info("Wallet balance moved",
		zap.Int64("user_id", userID),
		zap.String("type", string(txType)),
		zap.String("amount", amount.String()),
		zap.String("balance_after", entry.BalanceAfter.String()))
	return entry, nil
}

func (s *Service) Investments(ctx context.Context, userID int64) ([]models.Investment, error) {
	list, err := s.store.ListInvestmentsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	if list == nil {
		list = []models.Investment{}
	}
	return list, nil
}

func (s *Service) Plans(ctx context.Context) ([]models.InvestmentPlan, error) {
	list, err := s.store.ListActivePlans(ctx)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	if list == nil {
		list = []models.InvestmentPlan{}
	}
	return list, nil
}
