package referral

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
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Service, *memory.Store, int64, int64) {
	t.Helper()
	s := memory.New()
	var referrer, buyer models.User
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		referrer = models.User{Email: "ref@example.com", Role: models.RoleCustomer}
		buyer = models.User{Email: "buyer@example.com", Role: models.RoleCustomer}
		if err := tx.CreateUser(ctx, &referrer); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &buyer)
	}))
	svc := NewService(s, decimal.NewFromInt(10), decimal.NewFromInt(5), zap.NewNop())
	return svc, s, referrer.ID, buyer.ID
}

func TestSettlePurchaseReferral(t *testing.T) {
	ctx := context.Background()
	svc, s, referrerID, buyerID := setup(t)

	rc, err := svc.IssueCode(ctx, referrerID)
	require.NoError(t, err)

	got, err := svc.SettlePurchaseReferral(ctx, SettleRequest{
		BuyerID: buyerID, OrderID: 1, OrderTotal: decimal.NewFromInt(50000), Code: " " + rc.Code + " ",
	})
	require.NoError(t, err)
	assert.Equal(t, "5000", got.Bonus.String())
	assert.Equal(t, "2500", got.Commission.String())

	bonuses, err := s.ListTransactions(ctx, buyerID, models.TxBonus)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, "5000", bonuses[0].Amount.String())

	summary, err := svc.Commissions(ctx, referrerID)
	require.NoError(t, err)
	assert.Equal(t, "2500", summary.TotalEarnings.String())
	require.Len(t, summary.Commissions, 1)
	assert.Equal(t, buyerID, summary.Commissions[0].BuyerID)

	// The referrer's wallet is not touched; commission lives on the code.
	w, err := s.GetWallet(ctx, referrerID)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestSettlePurchaseReferral_OncePerBuyer(t *testing.T) {
	ctx := context.Background()
	svc, s, referrerID, buyerID := setup(t)
	rc, err := svc.IssueCode(ctx, referrerID)
	require.NoError(t, err)

	req := SettleRequest{BuyerID: buyerID, OrderID: 1, OrderTotal: decimal.NewFromInt(1000), Code: rc.Code}
	_, err = svc.SettlePurchaseReferral(ctx, req)
	require.NoError(t, err)

	req.OrderID = 2
	_, err = svc.SettlePurchaseReferral(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	history, err := s.ListTransactions(ctx, buyerID, "")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSettlePurchaseReferral_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _, referrerID, buyerID := setup(t)
	rc, err := svc.IssueCode(ctx, referrerID)
	require.NoError(t, err)

	_, err = svc.SettlePurchaseReferral(ctx, SettleRequest{BuyerID: referrerID, OrderID: 1, OrderTotal: decimal.NewFromInt(100), Code: rc.Code})
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest), "self referral")

	_, err = svc.SettlePurchaseReferral(ctx, SettleRequest{BuyerID: buyerID, OrderID: 1, OrderTotal: decimal.NewFromInt(100), Code: "NOPE1234"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.SettlePurchaseReferral(ctx, SettleRequest{BuyerID: buyerID, OrderID: 1, OrderTotal: decimal.NewFromInt(100), Code: "  "})
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))
}

func TestPercentOf_Floors(t *testing.T) {
	assert.Equal(t, "99", percentOf(decimal.NewFromInt(999), decimal.NewFromInt(10)).String())
	assert.Equal(t, "49", percentOf(decimal.NewFromInt(999), decimal.NewFromInt(5)).String())
	assert.Equal(t, "0", percentOf(decimal.NewFromInt(9), decimal.NewFromInt(10)).String())
}

func TestIssueCode_ReturnsExisting(t *testing.T) {
	ctx := context.Background()
	svc, _, referrerID, _ := setup(t)

	first, err := svc.IssueCode(ctx, referrerID)
	require.NoError(t, err)
	assert.Len(t, first.Code, codeLength)
	assert.Equal(t, Normalize(first.Code), first.Code)

	second, err := svc.IssueCode(ctx, referrerID)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)

	_, err = svc.IssueCode(ctx, 999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
