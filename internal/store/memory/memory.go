// Package memory is an in-process store.Store. Units of work are serialized
// behind one mutex and applied copy-on-commit, so a failed unit of work leaves
// no trace. It backs local runs (STORE_DRIVER=memory) and the engine tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
)

type state struct {
	seq           map[string]int64
	users         map[int64]models.User
	products      map[int64]models.Product
	orders        map[int64]models.Order
	wallets       map[int64]models.WalletAccount
	transactions  []models.WalletTransaction
	cashback      []models.CashbackRecord
	plans         map[int64]models.InvestmentPlan
	investments   []models.Investment
	referralCodes map[int64]models.ReferralCode
	referralUses  []models.ReferralUse
	commissions   []models.ReferralCommission
}

func newState() *state {
	return &state{
		seq:           map[string]int64{},
		users:         map[int64]models.User{},
		products:      map[int64]models.Product{},
		orders:        map[int64]models.Order{},
		wallets:       map[int64]models.WalletAccount{},
		plans:         map[int64]models.InvestmentPlan{},
		referralCodes: map[int64]models.ReferralCode{},
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:           make(map[string]int64, len(s.seq)),
		users:         make(map[int64]models.User, len(s.users)),
		products:      make(map[int64]models.Product, len(s.products)),
		orders:        make(map[int64]models.Order, len(s.orders)),
		wallets:       make(map[int64]models.WalletAccount, len(s.wallets)),
		plans:         make(map[int64]models.InvestmentPlan, len(s.plans)),
		referralCodes: make(map[int64]models.ReferralCode, len(s.referralCodes)),
		transactions:  append([]models.WalletTransaction(nil), s.transactions...),
		cashback:      append([]models.CashbackRecord(nil), s.cashback...),
		investments:   append([]models.Investment(nil), s.investments...),
		referralUses:  append([]models.ReferralUse(nil), s.referralUses...),
		commissions:   append([]models.ReferralCommission(nil), s.commissions...),
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	// Order items are never mutated after creation, so sharing the slice is safe.
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.referralCodes {
		c.referralCodes[k] = v
	}
	return c
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Store implements store.Store in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// PutProduct seeds or replaces a catalog row. The catalog is external to the
// engine, so this lives outside the store.Tx surface.
func (s *Store) PutProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.st.next("products")
	} else if p.ID > s.st.seq["products"] {
		s.st.seq["products"] = p.ID
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.st.products[p.ID] = p
	return p
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// --- Reader ---

func (s *Store) GetProduct(_ context.Context, productID int64) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[productID]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, orderID int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[orderID]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetWallet(_ context.Context, userID int64) (models.WalletAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.wallets[userID]
	if !ok {
		return models.WalletAccount{UserID: userID, Balance: decimal.Zero}, nil
	}
	return w, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, txType models.TransactionType) ([]models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WalletTransaction
	for i := len(s.st.transactions) - 1; i >= 0; i-- {
		t := s.st.transactions[i]
		if t.UserID != userID || (txType != "" && t.Type != txType) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListCashbackRecords(_ context.Context, userID int64) ([]models.CashbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CashbackRecord
	for _, r := range s.st.cashback {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListActivePlans(_ context.Context) ([]models.InvestmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.activePlans(), nil
}

func (s *Store) ListInvestmentsByUser(_ context.Context, userID int64) ([]models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Investment
	for _, inv := range s.st.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findUser(userID)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.findUserByEmail(email)
}

func (s *Store) GetReferralCodeByOwner(_ context.Context, userID int64) (models.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.st.referralCodes {
		if rc.UserID == userID {
			return rc, nil
		}
	}
	return models.ReferralCode{}, store.ErrNotFound
}

func (s *Store) ListCommissions(_ context.Context, referralCodeID int64) ([]models.ReferralCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReferralCommission
	for i := len(s.st.commissions) - 1; i >= 0; i-- {
		if c := s.st.commissions[i]; c.ReferralCodeID == referralCodeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *state) activePlans() []models.InvestmentPlan {
	var out []models.InvestmentPlan
	for _, p := range s.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) findUser(userID int64) (models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *state) findUserByEmail(email string) (models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}
