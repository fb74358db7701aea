package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := s.PutProduct(models.Product{Name: "Kettle", Price: decimal.NewFromInt(700), StockCount: 3})

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.SetWalletBalance(ctx, 1, decimal.NewFromInt(50), time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockCount)

	w, err := s.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestDecrementStock_Guard(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := s.PutProduct(models.Product{Name: "Mug", Price: decimal.NewFromInt(10), StockCount: 1})

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = tx.DecrementStock(ctx, 999, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, 1, got.StockCount)
}

func TestReferralUse_Unique(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		rc := &models.ReferralCode{UserID: 1, Code: "ABC"}
		require.NoError(t, tx.CreateReferralCode(ctx, rc))
		require.NoError(t, tx.InsertReferralUse(ctx, &models.ReferralUse{UserID: 2, ReferralCodeID: rc.ID}))
		assert.ErrorIs(t, tx.InsertReferralUse(ctx, &models.ReferralUse{UserID: 2, ReferralCodeID: rc.ID}), store.ErrDuplicate)
		assert.ErrorIs(t, tx.CreateReferralCode(ctx, &models.ReferralCode{UserID: 1, Code: "XYZ"}), store.ErrDuplicate)
		return nil
	})
	require.NoError(t, err)
}

func TestListTransactions_NewestFirstAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, typ := range []models.TransactionType{models.TxDeposit, models.TxOrderPayment, models.TxCashback} {
			require.NoError(t, tx.InsertTransaction(ctx, &models.WalletTransaction{UserID: 5, Type: typ}))
		}
		return nil
	})
	require.NoError(t, err)

	all, err := s.ListTransactions(ctx, 5, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.TxCashback, all[0].Type)
	assert.Equal(t, models.TxDeposit, all[2].Type)

	cb, err := s.ListTransactions(ctx, 5, models.TxCashback)
	require.NoError(t, err)
	assert.Len(t, cb, 1)
}

func TestSavePlan_UpsertsBySlug(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p := &models.InvestmentPlan{Slug: "starter", MinAmount: decimal.NewFromInt(5000), IsActive: true}
		require.NoError(t, tx.SavePlan(ctx, p))
		again := &models.InvestmentPlan{Slug: "starter", MinAmount: decimal.NewFromInt(6000), IsActive: true}
		require.NoError(t, tx.SavePlan(ctx, again))
		assert.Equal(t, p.ID, again.ID)
		return nil
	})
	require.NoError(t, err)

	plans, err := s.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].MinAmount.Equal(decimal.NewFromInt(6000)))
}
