package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// transitions lists the statuses each status may move to. Cancellation does
// not reverse any money; a refund is a separate wallet operation.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

func canTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func knownStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	}
	return false
}

// UpdateStatus moves an order along pending -> processing -> shipped -> delivered,
// or to cancelled from pending or processing.
func (e *Engine) UpdateStatus(ctx context.Context, orderID int64, to models.OrderStatus) (models.Order, error) {
	if !knownStatus(to) {
		return models.Order{}, apperr.InvalidRequest("unknown order status %q", to)
	}

	var updated models.Order
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return fmt.Errorf("lock order %d: %w", orderID, err)
		}
		if !canTransition(o.Status, to) {
			return apperr.InvalidTransition(string(o.Status), string(to))
		}

		now := time.Now()
		if err := tx.UpdateOrderStatus(ctx, orderID, to, now); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		o.Status = to
		o.UpdatedAt = now
		updated = o
		return nil
	})
	if err != nil {
		return models.Order{}, apperr.Normalize(err)
	}

	e.logger.Info("Order status changed", zap.Int64("order_id", orderID), zap.String("status", string(to)))
	return updated, nil
}

type ConfirmPaymentResult struct {
	Order          models.Order       `json:"order"`
	CashbackEarned decimal.Decimal    `json:"cashbackEarned"`
	Investment     *models.Investment `json:"investment,omitempty"`
}

// ConfirmPayment settles a non-wallet order once the external payment has
// cleared: it is marked paid and its cashback is credited, and auto-invested
// when the owner has that enabled, in one unit of work.
func (e *Engine) ConfirmPayment(ctx context.Context, orderID int64) (ConfirmPaymentResult, error) {
	var out ConfirmPaymentResult
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// 1. --- Lock and check the order ---
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("order")
		}
		if err != nil {
			return fmt.Errorf("lock order %d: %w", orderID, err)
		}
		if o.PaymentStatus == models.PaymentStatusPaid {
			return apperr.Conflict("order is already paid")
		}
		if o.Status == models.OrderStatusCancelled {
			return apperr.Conflict("order is cancelled")
		}

		user, err := tx.FindUser(ctx, o.UserID)
		if err != nil {
			return fmt.Errorf("find order owner: %w", err)
		}

		// 2. --- Mark paid ---
		now := time.Now()
		if err := tx.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusPaid, now); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		o.PaymentStatus = models.PaymentStatusPaid
		o.UpdatedAt = now

		// 3. --- Cashback and optional auto-invest ---
		credit, err := creditCashback(ctx, tx, o, now)
		if err != nil {
			return err
		}
		if user.AutoInvest {
			if credit.investment, err = autoInvest(ctx, tx, o, now); err != nil {
				return err
			}
		}

		out = ConfirmPaymentResult{Order: o, CashbackEarned: credit.amount, Investment: credit.investment}
		return nil
	})
	if err != nil {
		return ConfirmPaymentResult{}, apperr.Normalize(err)
	}

	e.logger.Info("Order payment confirmed", zap.Int64("order_id", orderID))
	return out, nil
}

// GetOrder returns the order if userID owns it. Other users' orders look
// exactly like missing ones.
func (e *Engine) GetOrder(ctx context.Context, userID, orderID int64) (models.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && o.UserID != userID) {
		return models.Order{}, apperr.NotFound("order")
	}
	if err != nil {
		return models.Order{}, apperr.Normalize(err)
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (e *Engine) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	list, err := e.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}
