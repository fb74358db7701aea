package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/01moynul/taptosell-checkout/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAppend_ChainsEntries(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := Append(ctx, tx, Entry{UserID: 1, Type: models.TxDeposit, Amount: d(100)}); err != nil {
			return err
		}
		if _, err := Append(ctx, tx, Entry{UserID: 1, Type: models.TxOrderPayment, Amount: d(-30)}); err != nil {
			return err
		}
		_, err := Append(ctx, tx, Entry{UserID: 1, Type: models.TxCashback, Amount: d(3)})
		return err
	})
	require.NoError(t, err)

	balance, err := GetBalance(ctx, s, 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(73)), balance.String())

	history, err := GetHistory(ctx, s, 1, "")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].BalanceAfter.Equal(balance), "cached balance must equal the tail")

	oldestFirst := []models.WalletTransaction{history[2], history[1], history[0]}
	assert.NoError(t, Verify(oldestFirst))
}

func TestAppend_RejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := Append(ctx, tx, Entry{UserID: 1, Type: models.TxWithdrawal, Amount: d(-1)})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrInsufficientFunds))

	history, err := GetHistory(ctx, s, 1, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_UnknownType(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := Append(ctx, tx, Entry{UserID: 1, Type: "gift", Amount: d(1)})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))
}

func TestVerify_DetectsBrokenChain(t *testing.T) {
	entries := []models.WalletTransaction{
		{ID: 1, Amount: d(10), BalanceBefore: d(0), BalanceAfter: d(10)},
		{ID: 2, Amount: d(5), BalanceBefore: d(11), BalanceAfter: d(16)},
	}
	assert.Error(t, Verify(entries))

	entries[1].BalanceBefore = d(10)
	entries[1].BalanceAfter = d(14)
	assert.Error(t, Verify(entries))
}
