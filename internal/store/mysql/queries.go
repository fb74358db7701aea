package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

// queries holds the read helpers shared by the Store and tx.
type queries struct {
	db querier
}

const productColumns = "id, name, price, stock_count, cashback_rate, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.StockCount, &p.CashbackRate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q queries) product(ctx context.Context, productID int64, lock bool) (models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	p, err := scanProduct(q.db.QueryRowContext(ctx, query, productID))
	if err != nil {
		return models.Product{}, notFound(err)
	}
	return p, nil
}

const orderColumns = "id, user_id, status, payment_method, payment_status, delivery_address, total_amount, total_cashback, idempotency_key, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var (
		o   models.Order
		key sql.NullString
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.DeliveryAddress,
		&o.TotalAmount, &o.TotalCashback, &key, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	if key.Valid {
		o.IdempotencyKey = &key.String
	}
	return o, nil
}

func (q queries) orderWhere(ctx context.Context, where string, args ...any) (models.Order, error) {
	o, err := scanOrder(q.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+where, args...))
	if err != nil {
		return models.Order{}, notFound(err)
	}
	items, err := q.orderItems(ctx, o.ID)
	if err != nil {
		return models.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (q queries) orderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, cashback, position, created_at
		FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Cashback, &it.Position, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q queries) wallet(ctx context.Context, userID int64, lock bool) (models.WalletAccount, error) {
	query := "SELECT user_id, balance, updated_at FROM wallet_accounts WHERE user_id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	var w models.WalletAccount
	if err := q.db.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt); err != nil {
		return models.WalletAccount{}, notFound(err)
	}
	return w, nil
}

func (q queries) activePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, slug, name, min_amount, duration_days, return_rate, is_active, created_at
		FROM investment_plans WHERE is_active = TRUE ORDER BY min_amount, id`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.InvestmentPlan
	for rows.Next() {
		var p models.InvestmentPlan
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.MinAmount, &p.DurationDays, &p.ReturnRate, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

const userColumns = "id, role, email, password_hash, full_name, phone_number, auto_invest, created_at, updated_at"

func (q queries) userWhere(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	err := q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg).Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.FullName, &u.PhoneNumber, &u.AutoInvest, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (q queries) referralCodeWhere(ctx context.Context, where string, arg any) (models.ReferralCode, error) {
	var rc models.ReferralCode
	err := q.db.QueryRowContext(ctx,
		"SELECT id, user_id, code, total_earnings, created_at FROM referral_codes WHERE "+where, arg).Scan(
		&rc.ID, &rc.UserID, &rc.Code, &rc.TotalEarnings, &rc.CreatedAt)
	if err != nil {
		return models.ReferralCode{}, notFound(err)
	}
	return rc, nil
}

// --- store.Reader ---

func (s *Store) GetProduct(ctx context.Context, productID int64) (models.Product, error) {
	return s.q.product(ctx, productID, false)
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (models.Order, error) {
	return s.q.orderWhere(ctx, "id = ?", orderID)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Items are loaded after the order cursor is closed so the pool can reuse the connection.
	for i := range orders {
		if orders[i].Items, err = s.q.orderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetWallet returns a zero balance for users who have never transacted.
func (s *Store) GetWallet(ctx context.Context, userID int64) (models.WalletAccount, error) {
	w, err := s.q.wallet(ctx, userID, false)
	if errors.Is(err, store.ErrNotFound) {
		return models.WalletAccount{UserID: userID, Balance: decimal.Zero}, nil
	}
	return w, err
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_before, balance_after, reference, description, created_at
		FROM wallet_transactions WHERE user_id = ?`
	args := []any{userID}
	if txType != "" {
		query += " AND type = ?"
		args = append(args, txType)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceBefore, &t.BalanceAfter, &t.Reference, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListCashbackRecords(ctx context.Context, userID int64) ([]models.CashbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, user_id, transaction_id, amount, status, created_at
		FROM cashback_records WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cashback records: %w", err)
	}
	defer rows.Close()

	var out []models.CashbackRecord
	for rows.Next() {
		var r models.CashbackRecord
		if err := rows.Scan(&r.ID, &r.OrderID, &r.UserID, &r.TransactionID, &r.Amount, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cashback record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListActivePlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return s.q.activePlans(ctx)
}

func (s *Store) ListInvestmentsByUser(ctx context.Context, userID int64) ([]models.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, plan_id, order_id, principal, current_value, expected_return, maturity_date, status, created_at
		FROM investments WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var out []models.Investment
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.PlanID, &inv.OrderID, &inv.Principal, &inv.CurrentValue,
			&inv.ExpectedReturn, &inv.MaturityDate, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID int64) (models.User, error) {
	return s.q.userWhere(ctx, "id = ?", userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.q.userWhere(ctx, "email = ?", email)
}

func (s *Store) GetReferralCodeByOwner(ctx context.Context, userID int64) (models.ReferralCode, error) {
	return s.q.referralCodeWhere(ctx, "user_id = ?", userID)
}

func (s *Store) ListCommissions(ctx context.Context, referralCodeID int64) ([]models.ReferralCommission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, referral_code_id, referrer_id, buyer_id, order_id, amount, created_at
		FROM referral_commissions WHERE referral_code_id = ? ORDER BY id DESC`, referralCodeID)
	if err != nil {
		return nil, fmt.Errorf("query commissions: %w", err)
	}
	defer rows.Close()

	var out []models.ReferralCommission
	for rows.Next() {
		var c models.ReferralCommission
		if err := rows.Scan(&c.ID, &c.ReferralCodeID, &c.ReferrerID, &c.BuyerID, &c.OrderID, &c.Amount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
