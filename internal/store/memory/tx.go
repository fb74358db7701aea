package memory

import (
	"context"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

// tx works on a private copy of the state; WithTx swaps it in on success.
type tx struct {
	st *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) GetProductForUpdate(_ context.Context, productID int64) (models.Product, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (t *tx) CreateProduct(_ context.Context, p *models.Product) error {
	p.ID = t.st.next("products")
	t.st.products[p.ID] = *p
	return nil
}

func (t *tx) AddStock(_ context.Context, productID int64, qty int, at time.Time) error {
	p, ok := t.st.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.StockCount += qty
	p.UpdatedAt = at
	t.st.products[productID] = p
	return nil
}

func (t *tx) DecrementStock(_ context.Context, productID int64, qty int) (bool, error) {
	p, ok := t.st.products[productID]
	if !ok || p.StockCount < qty {
		return false, nil
	}
	p.StockCount -= qty
	p.UpdatedAt = time.Now()
	t.st.products[productID] = p
	return true, nil
}

func (t *tx) CreateOrder(_ context.Context, order *models.Order) error {
	if order.IdempotencyKey != nil {
		if _, err := t.FindOrderByIdempotencyKey(context.Background(), order.UserID, *order.IdempotencyKey); err == nil {
			return store.ErrDuplicate
		}
	}
	order.ID = t.st.next("orders")
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.ID = t.st.next("order_items")
		item.OrderID = order.ID
		items[i] = item
	}
	order.Items = items
	t.st.orders[order.ID] = *order
	return nil
}

func (t *tx) GetOrderForUpdate(_ context.Context, orderID int64) (models.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (t *tx) FindOrderByIdempotencyKey(_ context.Context, userID int64, key string) (models.Order, error) {
	for _, o := range t.st.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, nil
		}
	}
	return models.Order{}, store.ErrNotFound
}

func (t *tx) UpdateOrderStatus(_ context.Context, orderID int64, status models.OrderStatus, at time.Time) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	t.st.orders[orderID] = o
	return nil
}

func (t *tx) UpdatePaymentStatus(_ context.Context, orderID int64, status models.PaymentStatus, at time.Time) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = at
	t.st.orders[orderID] = o
	return nil
}

func (t *tx) LockWallet(_ context.Context, userID int64) (models.WalletAccount, error) {
	w, ok := t.st.wallets[userID]
	if !ok {
		w = models.WalletAccount{UserID: userID, Balance: decimal.Zero, UpdatedAt: time.Now()}
		t.st.wallets[userID] = w
	}
	return w, nil
}

func (t *tx) SetWalletBalance(_ context.Context, userID int64, balance decimal.Decimal, at time.Time) error {
	t.st.wallets[userID] = models.WalletAccount{UserID: userID, Balance: balance, UpdatedAt: at}
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, entry *models.WalletTransaction) error {
	entry.ID = t.st.next("wallet_transactions")
	t.st.transactions = append(t.st.transactions, *entry)
	return nil
}

func (t *tx) InsertCashbackRecord(_ context.Context, record *models.CashbackRecord) error {
	for _, r := range t.st.cashback {
		if r.OrderID == record.OrderID {
			return store.ErrDuplicate
		}
	}
	record.ID = t.st.next("cashback_records")
	t.st.cashback = append(t.st.cashback, *record)
	return nil
}

func (t *tx) ActivePlans(_ context.Context) ([]models.InvestmentPlan, error) {
	return t.st.activePlans(), nil
}

func (t *tx) SavePlan(_ context.Context, plan *models.InvestmentPlan) error {
	for id, p := range t.st.plans {
		if p.Slug == plan.Slug {
			plan.ID = id
			plan.CreatedAt = p.CreatedAt
			t.st.plans[id] = *plan
			return nil
		}
	}
	plan.ID = t.st.next("investment_plans")
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	t.st.plans[plan.ID] = *plan
	return nil
}

func (t *tx) CreateInvestment(_ context.Context, inv *models.Investment) error {
	inv.ID = t.st.next("investments")
	t.st.investments = append(t.st.investments, *inv)
	return nil
}

func (t *tx) FindUser(_ context.Context, userID int64) (models.User, error) {
	return t.st.findUser(userID)
}

func (t *tx) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	return t.st.findUserByEmail(email)
}

func (t *tx) CreateUser(_ context.Context, user *models.User) error {
	if _, err := t.st.findUserByEmail(user.Email); err == nil {
		return store.ErrDuplicate
	}
	user.ID = t.st.next("users")
	t.st.users[user.ID] = *user
	return nil
}

func (t *tx) SetAutoInvest(_ context.Context, userID int64, enabled bool, at time.Time) error {
	u, ok := t.st.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.AutoInvest = enabled
	u.UpdatedAt = at
	t.st.users[userID] = u
	return nil
}

func (t *tx) FindReferralCode(_ context.Context, code string) (models.ReferralCode, error) {
	for _, rc := range t.st.referralCodes {
		if rc.Code == code {
			return rc, nil
		}
	}
	return models.ReferralCode{}, store.ErrNotFound
}

func (t *tx) CreateReferralCode(_ context.Context, rc *models.ReferralCode) error {
	for _, existing := range t.st.referralCodes {
		if existing.UserID == rc.UserID || existing.Code == rc.Code {
			return store.ErrDuplicate
		}
	}
	rc.ID = t.st.next("referral_codes")
	t.st.referralCodes[rc.ID] = *rc
	return nil
}

func (t *tx) InsertReferralUse(_ context.Context, use *models.ReferralUse) error {
	for _, u := range t.st.referralUses {
		if u.UserID == use.UserID && u.ReferralCodeID == use.ReferralCodeID {
			return store.ErrDuplicate
		}
	}
	use.ID = t.st.next("referral_uses")
	t.st.referralUses = append(t.st.referralUses, *use)
	return nil
}

func (t *tx) InsertCommission(_ context.Context, c *models.ReferralCommission) error {
	c.ID = t.st.next("referral_commissions")
	t.st.commissions = append(t.st.commissions, *c)
	return nil
}

func (t *tx) AddReferralEarnings(_ context.Context, referralCodeID int64, amount decimal.Decimal) error {
	rc, ok := t.st.referralCodes[referralCodeID]
	if !ok {
		return store.ErrNotFound
	}
	rc.TotalEarnings = rc.TotalEarnings.Add(amount)
	t.st.referralCodes[referralCodeID] = rc
	return nil
}
