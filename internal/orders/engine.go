// Package orders is the checkout engine. PlaceOrder turns a cart into an
// Order and settles its money and stock in one unit of work; the rest of the
// package moves orders through their lifecycle afterwards.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/events"
	"github.com/01moynul/taptosell-checkout/internal/ledger"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/referral"
	"github.com/01moynul/taptosell-checkout/internal/stock"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Authorizer approves a non-wallet payment. *payment.Client satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, phone string, amount decimal.Decimal) (bool, error)
}

// ReferralSettler is satisfied by *referral.Service.
type ReferralSettler interface {
	SettlePurchaseReferral(ctx context.Context, req referral.SettleRequest) (referral.Settlement, error)
}

type Engine struct {
	store     store.Store
	payments  Authorizer
	referrals ReferralSettler
	publisher events.Publisher
	logger    *zap.Logger
}

func NewEngine(s store.Store, payments Authorizer, referrals ReferralSettler, publisher events.Publisher, logger *zap.Logger) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Engine{store: s, payments: payments, referrals: referrals, publisher: publisher, logger: logger}
}

type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type PlaceOrderRequest struct {
	UserID          int64
	Items           []ItemRequest
	PaymentMethod   string
	DeliveryAddress string
	// Phone is the number the external payment service charges. Required
	// for every method other than wallet.
	Phone          string
	ReferralCode   string
	IdempotencyKey string
	RequestID      string
}

type PlaceOrderResult struct {
	Order          models.Order         `json:"order"`
	CashbackEarned decimal.Decimal      `json:"cashbackEarned"`
	Investment     *models.Investment   `json:"investment,omitempty"`
	Referral       *referral.Settlement `json:"referral,omitempty"`
	// Replayed is true when IdempotencyKey matched an earlier order.
	Replayed bool `json:"replayed"`
}

// PlaceOrder validates the cart, then in one unit of work re-reads every
// product under lock, creates the order, settles the wallet legs and
// decrements stock. Nothing is persisted unless all of it succeeds.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	result, err := e.placeOrder(ctx, req)
	if err != nil {
		err = apperr.Normalize(err)
		if apperr.KindOf(err) == apperr.KindTransactionAborted {
			e.logger.Error("Checkout aborted",
				zap.Int64("user_id", req.UserID),
				zap.String("request_id", req.RequestID),
				zap.Error(err))
		}
		return PlaceOrderResult{}, err
	}
	if result.Replayed {
		return result, nil
	}

	e.logger.Info("Order placed",
		zap.Int64("order_id", result.Order.ID),
		zap.Int64("user_id", req.UserID),
		zap.String("total", result.Order.TotalAmount.String()),
		zap.String("cashback", result.CashbackEarned.String()),
		zap.String("request_id", req.RequestID))

	// Everything below runs after commit and cannot fail the order.
	e.publish(ctx, result.Order, req.RequestID)
	if req.ReferralCode != "" && e.referrals != nil {
		settlement, err := e.referrals.SettlePurchaseReferral(ctx, referral.SettleRequest{
			BuyerID:    req.UserID,
			OrderID:    result.Order.ID,
			OrderTotal: result.Order.TotalAmount,
			Code:       req.ReferralCode,
		})
		if err != nil {
			e.logger.Warn("Referral settlement failed",
				zap.Int64("order_id", result.Order.ID),
				zap.String("code", req.ReferralCode),
				zap.Error(err))
		} else {
			result.Referral = &settlement
		}
	}
	return result, nil
}

func (e *Engine) placeOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	// 1. --- Validate the request before any I/O ---
	lines, err := normalizeItems(req.Items)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if req.UserID <= 0 {
		return PlaceOrderResult{}, apperr.InvalidRequest("user id is required")
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		return PlaceOrderResult{}, apperr.InvalidRequest("payment method is required")
	}
	byWallet := method == models.PaymentMethodWallet
	if !byWallet && strings.TrimSpace(req.Phone) == "" {
		return PlaceOrderResult{}, apperr.InvalidRequest("phone is required for %s payments", method)
	}
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return PlaceOrderResult{}, apperr.InvalidRequest("delivery address is required")
	}

	// 2. --- Replay a known idempotency key without charging again ---
	if req.IdempotencyKey != "" {
		if existing, ok, err := e.findByKey(ctx, req.UserID, req.IdempotencyKey); err != nil {
			return PlaceOrderResult{}, err
		} else if ok {
			return replay(existing), nil
		}
	}

	// 3. --- Authorize external payments outside the unit of work ---
	var authorized decimal.Decimal
	if !byWallet {
		if authorized, err = e.authorize(ctx, req.Phone, lines); err != nil {
			return PlaceOrderResult{}, err
		}
	}

	// 4. --- The unit of work ---
	var result PlaceOrderResult
	err = e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		result = PlaceOrderResult{}

		if req.IdempotencyKey != "" {
			existing, err := tx.FindOrderByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
			if err == nil {
				result = replay(existing)
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("find order by idempotency key: %w", err)
			}
		}

		user, err := tx.FindUser(ctx, req.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user")
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}

		// 4a. Fresh, locked read of every product; all-or-nothing stock check.
		now := time.Now()
		order, err := priceOrder(ctx, tx, lines, now)
		if err != nil {
			return err
		}
		if !byWallet && !order.TotalAmount.Equal(authorized) {
			return apperr.Conflict("prices changed while the payment was being authorized, please retry")
		}

		// 4b. Create the order and its items.
		order.UserID = req.UserID
		order.Status = models.OrderStatusPending
		order.PaymentMethod = method
		order.PaymentStatus = models.PaymentStatusPending
		if byWallet {
			order.PaymentStatus = models.PaymentStatusPaid
		}
		order.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			order.IdempotencyKey = &key
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("an order with this idempotency key is already being placed")
			}
			return fmt.Errorf("create order: %w", err)
		}

		// 4c. Wallet leg: debit the total, then credit the cashback.
		var credit cashbackCredit
		if byWallet {
			if _, err := ledger.Append(ctx, tx, ledger.Entry{
				UserID:      req.UserID,
				Type:        models.TxOrderPayment,
				Amount:      order.TotalAmount.Neg(),
				Reference:   orderRef(order.ID),
				Description: fmt.Sprintf("Payment for order %d", order.ID),
			}); err != nil {
				return err
			}
			if credit, err = creditCashback(ctx, tx, order, now); err != nil {
				return err
			}
		}

		// 4d. Stock, re-validated by the conditional decrement.
		for _, it := range order.Items {
			if err := stock.Decrement(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		// 4e. Optional auto-invest of the credited cashback.
		if byWallet && user.AutoInvest {
			if credit.investment, err = autoInvest(ctx, tx, order, now); err != nil {
				return err
			}
		}

		result = PlaceOrderResult{
			Order:          order,
			CashbackEarned: credit.amount,
			Investment:     credit.investment,
		}
		return nil
	})
	if err != nil {
		if !byWallet {
			// The provider approved a charge that now has no order behind it.
			e.logger.Warn("Authorized payment left without an order",
				zap.Int64("user_id", req.UserID),
				zap.String("payment_method", method),
				zap.String("phone", req.Phone),
				zap.String("amount", authorized.String()),
				zap.String("request_id", req.RequestID),
				zap.Error(err))
		}
		return PlaceOrderResult{}, err
	}
	return result, nil
}

func (e *Engine) findByKey(ctx context.Context, userID int64, key string) (models.Order, bool, error) {
	var (
		found models.Order
		ok    bool
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.FindOrderByIdempotencyKey(ctx, userID, key)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found, ok = o, true
		return nil
	})
	return found, ok, err
}

func replay(o models.Order) PlaceOrderResult {
	earned := decimal.Zero
	if o.PaymentStatus == models.PaymentStatusPaid {
		earned = o.TotalCashback
	}
	return PlaceOrderResult{Order: o, CashbackEarned: earned, Replayed: true}
}

// authorize quotes the cart from current prices and asks the payment service
// for that amount. The quote is checked again under lock inside the unit of work.
func (e *Engine) authorize(ctx context.Context, phone string, lines []ItemRequest) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range lines {
		p, err := e.store.GetProduct(ctx, l.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return decimal.Zero, apperr.ProductNotFound(l.ProductID)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("get product %d: %w", l.ProductID, err)
		}
		if p.StockCount < l.Quantity {
			return decimal.Zero, apperr.InsufficientStock(l.ProductID)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if e.payments == nil {
		return decimal.Zero, apperr.PaymentNotAuthorized(errors.New("no payment authorizer configured"))
	}
	approved, err := e.payments.Authorize(ctx, phone, total)
	if err != nil {
		e.logger.Warn("Payment authorization failed", zap.String("amount", total.String()), zap.Error(err))
		return decimal.Zero, apperr.PaymentNotAuthorized(err)
	}
	if !approved {
		return decimal.Zero, apperr.PaymentNotAuthorized(nil)
	}
	return total, nil
}

func (e *Engine) publish(ctx context.Context, o models.Order, requestID string) {
	if err := e.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(o, requestID)); err != nil {
		e.logger.Warn("Order event not published", zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

// normalizeItems rejects empty carts and bad quantities and merges repeated
// product ids, keeping the position of the first occurrence.
func normalizeItems(items []ItemRequest) ([]ItemRequest, error) {
	if len(items) == 0 {
		return nil, apperr.InvalidRequest("order must contain at least one item")
	}
	index := make(map[int64]int, len(items))
	out := make([]ItemRequest, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, apperr.InvalidRequest("product id must be positive")
		}
		if it.Quantity < 1 {
			return nil, apperr.InvalidRequest("quantity for product %d must be at least 1", it.ProductID)
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

// priceOrder locks the products in id order, so two carts sharing products
// cannot deadlock each other, and builds the order lines in request order.
func priceOrder(ctx context.Context, tx store.Catalog, lines []ItemRequest, now time.Time) (models.Order, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		p, err := tx.GetProductForUpdate(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return models.Order{}, apperr.ProductNotFound(id)
		}
		if err != nil {
			return models.Order{}, fmt.Errorf("lock product %d: %w", id, err)
		}
		products[id] = p
	}

	order := models.Order{
		TotalAmount:   decimal.Zero,
		TotalCashback: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         make([]models.OrderItem, 0, len(lines)),
	}
	for i, l := range lines {
		p := products[l.ProductID]
		if p.StockCount < l.Quantity {
			return models.Order{}, apperr.InsufficientStock(l.ProductID)
		}
		item := models.OrderItem{
			ProductID: p.ID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Position:  i,
			CreatedAt: now,
		}
		item.Cashback = LineCashback(item.LineTotal(), p.CashbackRate)
		order.TotalAmount = order.TotalAmount.Add(item.LineTotal())
		order.TotalCashback = order.TotalCashback.Add(item.Cashback)
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func orderRef(orderID int64) string { return fmt.Sprintf("order:%d", orderID) }
