// Package store defines the unit of work the checkout engine runs in.
//
// Every mutation of a wallet balance or a stock counter happens through a Tx
// handed out by Store.WithTx. Implementations guarantee that two units of work
// touching the same wallet or the same product are serialized: the MySQL store
// takes row locks, the memory store serializes whole units of work.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate record")
)

// Store is the entry point: read-only queries plus WithTx for anything that writes.
type Store interface {
	Reader

	// WithTx runs fn inside one atomic unit of work. If fn returns an error
	// nothing it did is visible afterwards.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader holds the queries that never need a lock.
type Reader interface {
	GetProduct(ctx context.Context, productID int64) (models.Product, error)
	// ListProducts returns the catalog ordered by id.
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetOrder(ctx context.Context, orderID int64) (models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	GetWallet(ctx context.Context, userID int64) (models.WalletAccount, error)
	// ListTransactions returns newest first. An empty txType means all types.
	ListTransactions(ctx context.Context, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error)
	ListCashbackRecords(ctx context.Context, userID int64) ([]models.CashbackRecord, error)
	ListActivePlans(ctx context.Context) ([]models.InvestmentPlan, error)
	ListInvestmentsByUser(ctx context.Context, userID int64) ([]models.Investment, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetReferralCodeByOwner(ctx context.Context, userID int64) (models.ReferralCode, error)
	ListCommissions(ctx context.Context, referralCodeID int64) ([]models.ReferralCommission, error)
}

// Tx is everything a unit of work may touch.
type Tx interface {
	Catalog
	Stock
	Orders
	Wallets
	Investments
	Users
	Referrals
}

type Catalog interface {
	// GetProductForUpdate reads the current price and stock and locks the row
	// until the unit of work ends.
	GetProductForUpdate(ctx context.Context, productID int64) (models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	// AddStock raises the stock counter. Decreases go through Stock.
	AddStock(ctx context.Context, productID int64, qty int, at time.Time) error
}

type Stock interface {
	// DecrementStock subtracts qty only if at least qty is available.
	// It reports false, without error, when the guard fails.
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
}

type Orders interface {
	// CreateOrder inserts the order and its items and fills in their ids.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderForUpdate(ctx context.Context, orderID int64) (models.Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus, at time.Time) error
}

type Wallets interface {
	// LockWallet returns the wallet row, creating an empty one if needed,
	// and holds it until the unit of work ends.
	LockWallet(ctx context.Context, userID int64) (models.WalletAccount, error)
	SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal, at time.Time) error
	InsertTransaction(ctx context.Context, entry *models.WalletTransaction) error
	InsertCashbackRecord(ctx context.Context, record *models.CashbackRecord) error
}

type Investments interface {
	ActivePlans(ctx context.Context) ([]models.InvestmentPlan, error)
	// SavePlan inserts the plan or updates the row with the same slug.
	SavePlan(ctx context.Context, plan *models.InvestmentPlan) error
	CreateInvestment(ctx context.Context, inv *models.Investment) error
}

type Users interface {
	FindUser(ctx context.Context, userID int64) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetAutoInvest(ctx context.Context, userID int64, enabled bool, at time.Time) error
}

type Referrals interface {
	FindReferralCode(ctx context.Context, code string) (models.ReferralCode, error)
	CreateReferralCode(ctx context.Context, rc *models.ReferralCode) error
	// InsertReferralUse fails with ErrDuplicate when the user already applied the code.
	InsertReferralUse(ctx context.Context, use *models.ReferralUse) error
	InsertCommission(ctx context.Context, c *models.ReferralCommission) error
	AddReferralEarnings(ctx context.Context, referralCodeID int64, amount decimal.Decimal) error
}
