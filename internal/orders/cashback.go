package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/investment"
	"github.com/01moynul/taptosell-checkout/internal/ledger"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineCashback is lineTotal * ratePercent / 100 truncated toward zero to a
// whole currency unit. Every cashback figure in the system goes through here.
func LineCashback(lineTotal, ratePercent decimal.Decimal) decimal.Decimal {
	if !ratePercent.IsPositive() {
		return decimal.Zero
	}
	return lineTotal.Mul(ratePercent).Div(hundred).Truncate(0)
}

type cashbackCredit struct {
	amount     decimal.Decimal
	investment *models.Investment
}

// creditCashback appends the cashback entry and its CashbackRecord. Orders
// with no cashback write neither.
func creditCashback(ctx context.Context, tx store.Wallets, order models.Order, now time.Time) (cashbackCredit, error) {
	if !order.TotalCashback.IsPositive() {
		return cashbackCredit{amount: decimal.Zero}, nil
	}

	entry, err := ledger.Append(ctx, tx, ledger.Entry{
		UserID:      order.UserID,
		Type:        models.TxCashback,
		Amount:      order.TotalCashback,
		Reference:   orderRef(order.ID),
		Description: fmt.Sprintf("Cashback for order %d", order.ID),
	})
	if err != nil {
		return cashbackCredit{}, err
	}

	record := models.CashbackRecord{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TransactionID: entry.ID,
		Amount:        order.TotalCashback,
		Status:        models.CashbackStatusCredited,
		CreatedAt:     now,
	}
	if err := tx.InsertCashbackRecord(ctx, &record); err != nil {
		return cashbackCredit{}, fmt.Errorf("insert cashback record: %w", err)
	}
	return cashbackCredit{amount: order.TotalCashback}, nil
}

// autoInvest moves the order's cashback into the best-fit plan, if one
// qualifies. The investment debit chains directly onto the cashback credit.
func autoInvest(ctx context.Context, tx store.Tx, order models.Order, now time.Time) (*models.Investment, error) {
	amount := order.TotalCashback
	if !amount.IsPositive() {
		return nil, nil
	}

	plans, err := tx.ActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	plan, ok := investment.SelectPlan(plans, amount)
	if !ok {
		return nil, nil
	}

	inv := investment.New(order.UserID, order.ID, plan, amount, now)
	if err := tx.CreateInvestment(ctx, &inv); err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}
	if _, err := ledger.Append(ctx, tx, ledger.Entry{
		UserID:      order.UserID,
		Type:        models.TxInvestment,
		Amount:      amount.Neg(),
		Reference:   fmt.Sprintf("investment:%d", inv.ID),
		Description: fmt.Sprintf("Auto-invest cashback from order %d into %s", order.ID, plan.Name),
	}); err != nil {
		return nil, err
	}
	return &inv, nil
}
