package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

// tx implements store.Tx on a *sql.Tx.
type tx struct {
	queries
}

var _ store.Tx = (*tx)(nil)

// --- Catalog & Stock ---

func (t *tx) GetProductForUpdate(ctx context.Context, productID int64) (models.Product, error) {
	return t.product(ctx, productID, true)
}

func (t *tx) CreateProduct(ctx context.Context, p *models.Product) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO products (name, price, stock_count, cashback_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Price, p.StockCount, p.CashbackRate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (t *tx) AddStock(ctx context.Context, productID int64, qty int, at time.Time) error {
	return t.execOne(ctx, "UPDATE products SET stock_count = stock_count + ?, updated_at = ? WHERE id = ?", qty, at, productID)
}

func (t *tx) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := t.db.ExecContext(ctx,
		"UPDATE products SET stock_count = stock_count - ?, updated_at = ? WHERE id = ? AND stock_count >= ?",
		qty, time.Now(), productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// --- Orders ---

func (t *tx) CreateOrder(ctx context.Context, order *models.Order) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO orders
		(user_id, status, payment_method, payment_status, delivery_address, total_amount, total_cashback, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.UserID, order.Status, order.PaymentMethod, order.PaymentStatus, order.DeliveryAddress,
		order.TotalAmount, order.TotalCashback, order.IdempotencyKey, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	if order.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range order.Items {
		it := &order.Items[i]
		it.OrderID = order.ID
		res, err := t.db.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, cashback, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Cashback, it.Position, it.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if it.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) GetOrderForUpdate(ctx context.Context, orderID int64) (models.Order, error) {
	return t.orderWhere(ctx, "id = ? FOR UPDATE", orderID)
}

func (t *tx) FindOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (models.Order, error) {
	return t.orderWhere(ctx, "user_id = ? AND idempotency_key = ?", userID, key)
}

func (t *tx) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus, at time.Time) error {
	return t.execOne(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, at, orderID)
}

func (t *tx) UpdatePaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus, at time.Time) error {
	return t.execOne(ctx, "UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?", status, at, orderID)
}

// --- Wallets ---

func (t *tx) LockWallet(ctx context.Context, userID int64) (models.WalletAccount, error) {
	// 1. --- Make sure the row exists so there is something to lock ---
	if _, err := t.db.ExecContext(ctx,
		"INSERT IGNORE INTO wallet_accounts (user_id, balance, updated_at) VALUES (?, 0, ?)",
		userID, time.Now()); err != nil {
		return models.WalletAccount{}, fmt.Errorf("ensure wallet: %w", err)
	}
	// 2. --- Lock it ---
	return t.wallet(ctx, userID, true)
}

func (t *tx) SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal, at time.Time) error {
	return t.execOne(ctx, "UPDATE wallet_accounts SET balance = ?, updated_at = ? WHERE user_id = ?", balance, at, userID)
}

func (t *tx) InsertTransaction(ctx context.Context, e *models.WalletTransaction) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO wallet_transactions
		(user_id, type, amount, balance_before, balance_after, reference, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Type, e.Amount, e.BalanceBefore, e.BalanceAfter, e.Reference, e.Description, e.CreatedAt)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (t *tx) InsertCashbackRecord(ctx context.Context, r *models.CashbackRecord) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO cashback_records (order_id, user_id, transaction_id, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.UserID, r.TransactionID, r.Amount, r.Status, r.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// --- Investments ---

func (t *tx) ActivePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return t.activePlans(ctx)
}

func (t *tx) SavePlan(ctx context.Context, p *models.InvestmentPlan) error {
	// LAST_INSERT_ID(id) makes LastInsertId report the existing row on update.
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO investment_plans (slug, name, min_amount, duration_days, return_rate, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id), name = VALUES(name), min_amount = VALUES(min_amount),
			duration_days = VALUES(duration_days), return_rate = VALUES(return_rate), is_active = VALUES(is_active)`,
		p.Slug, p.Name, p.MinAmount, p.DurationDays, p.ReturnRate, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", p.Slug, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (t *tx) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO investments
		(user_id, plan_id, order_id, principal, current_value, expected_return, maturity_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.UserID, inv.PlanID, inv.OrderID, inv.Principal, inv.CurrentValue, inv.ExpectedReturn,
		inv.MaturityDate, inv.Status, inv.CreatedAt)
	if err != nil {
		return err
	}
	inv.ID, err = res.LastInsertId()
	return err
}

// --- Users ---

func (t *tx) FindUser(ctx context.Context, userID int64) (models.User, error) {
	return t.userWhere(ctx, "id = ?", userID)
}

func (t *tx) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return t.userWhere(ctx, "email = ?", email)
}

func (t *tx) CreateUser(ctx context.Context, u *models.User) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO users (role, email, password_hash, full_name, phone_number, auto_invest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Role, u.Email, u.PasswordHash, u.FullName, u.PhoneNumber, u.AutoInvest, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (t *tx) SetAutoInvest(ctx context.Context, userID int64, enabled bool, at time.Time) error {
	return t.execOne(ctx, "UPDATE users SET auto_invest = ?, updated_at = ? WHERE id = ?", enabled, at, userID)
}

// --- Referrals ---

func (t *tx) FindReferralCode(ctx context.Context, code string) (models.ReferralCode, error) {
	return t.referralCodeWhere(ctx, "code = ?", code)
}

func (t *tx) CreateReferralCode(ctx context.Context, rc *models.ReferralCode) error {
	res, err := t.db.ExecContext(ctx,
		"INSERT INTO referral_codes (user_id, code, total_earnings, created_at) VALUES (?, ?, ?, ?)",
		rc.UserID, rc.Code, rc.TotalEarnings, rc.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	rc.ID, err = res.LastInsertId()
	return err
}

func (t *tx) InsertReferralUse(ctx context.Context, use *models.ReferralUse) error {
	res, err := t.db.ExecContext(ctx,
		"INSERT INTO referral_uses (user_id, referral_code_id, order_id, created_at) VALUES (?, ?, ?, ?)",
		use.UserID, use.ReferralCodeID, use.OrderID, use.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return err
	}
	use.ID, err = res.LastInsertId()
	return err
}

func (t *tx) InsertCommission(ctx context.Context, c *models.ReferralCommission) error {
	res, err := t.db.ExecContext(ctx, `
		INSERT INTO referral_commissions (referral_code_id, referrer_id, buyer_id, order_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ReferralCodeID, c.ReferrerID, c.BuyerID, c.OrderID, c.Amount, c.CreatedAt)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (t *tx) AddReferralEarnings(ctx context.Context, referralCodeID int64, amount decimal.Decimal) error {
	return t.execOne(ctx, "UPDATE referral_codes SET total_earnings = total_earnings + ? WHERE id = ?", amount, referralCodeID)
}

// execOne runs an UPDATE that must hit exactly one row.
func (t *tx) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
