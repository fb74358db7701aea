// Package referral issues referral codes and settles the bonus and
// commission owed when a buyer's order carries a code.
package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/ledger"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const codeLength = 8

var hundred = decimal.NewFromInt(100)

type Service struct {
	store             store.Store
	bonusPercent      decimal.Decimal
	commissionPercent decimal.Decimal
	logger            *zap.Logger
}

func NewService(s store.Store, bonusPercent, commissionPercent decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{store: s, bonusPercent: bonusPercent, commissionPercent: commissionPercent, logger: logger}
}

type SettleRequest struct {
	BuyerID    int64
	OrderID    int64
	OrderTotal decimal.Decimal
	Code       string
}

// Settlement is what one applied code paid out.
type Settlement struct {
	Code       string          `json:"code"`
	ReferrerID int64           `json:"-"`
	Bonus      decimal.Decimal `json:"bonus"`
	Commission decimal.Decimal `json:"commission"`
}

// Normalize trims and upper-cases a user-typed code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// percentOf is floor(amount * pct / 100).
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Floor()
}

// SettlePurchaseReferral credits the buyer's bonus to their wallet and the
// referrer's commission to the code's earnings ledger in one unit of work.
// It runs after the order has committed; its failure never touches the order.
func (s *Service) SettlePurchaseReferral(ctx context.Context, req SettleRequest) (Settlement, error) {
	code := Normalize(req.Code)
	if code == "" {
		return Settlement{}, apperr.InvalidRequest("referral code is empty")
	}

	var out Settlement
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// 1. --- Resolve the code ---
		rc, err := tx.FindReferralCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("referral code")
		}
		if err != nil {
			return fmt.Errorf("find referral code: %w", err)
		}
		if rc.UserID == req.BuyerID {
			return apperr.InvalidRequest("you cannot apply your own referral code")
		}

		// 2. --- Consume it, once per buyer ---
		now := time.Now()
		use := models.ReferralUse{UserID: req.BuyerID, ReferralCodeID: rc.ID, OrderID: req.OrderID, CreatedAt: now}
		if err := tx.InsertReferralUse(ctx, &use); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("referral code has already been applied")
			}
			return fmt.Errorf("insert referral use: %w", err)
		}

		out = Settlement{
			Code:       rc.Code,
			ReferrerID: rc.UserID,
			Bonus:      percentOf(req.OrderTotal, s.bonusPercent),
			Commission: percentOf(req.OrderTotal, s.commissionPercent),
		}

		// 3. --- Buyer bonus into the wallet ---
		if out.Bonus.IsPositive() {
			if _, err := ledger.Append(ctx, tx, ledger.Entry{
				UserID:      req.BuyerID,
				Type:        models.TxBonus,
				Amount:      out.Bonus,
				Reference:   fmt.Sprintf("order:%d", req.OrderID),
				Description: fmt.Sprintf("Referral bonus for order %d (code %s)", req.OrderID, rc.Code),
			}); err != nil {
				return err
			}
		}

		// 4. --- Referrer commission into the earnings ledger ---
		if out.Commission.IsPositive() {
			c := models.ReferralCommission{
				ReferralCodeID: rc.ID,
				ReferrerID:     rc.UserID,
				BuyerID:        req.BuyerID,
				OrderID:        req.OrderID,
				Amount:         out.Commission,
				CreatedAt:      now,
			}
			if err := tx.InsertCommission(ctx, &c); err != nil {
				return fmt.Errorf("insert commission: %w", err)
			}
			if err := tx.AddReferralEarnings(ctx, rc.ID, out.Commission); err != nil {
				return fmt.Errorf("add referral earnings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Settlement{}, apperr.Normalize(err)
	}

	s.logger.Info("Referral settled",
		zap.Int64("order_id", req.OrderID),
		zap.Int64("buyer_id", req.BuyerID),
		zap.Int64("referrer_id", out.ReferrerID),
		zap.String("bonus", out.Bonus.String()),
		zap.String("commission", out.Commission.String()))
	return out, nil
}

// IssueCode returns the user's referral code, creating it on first call.
func (s *Service) IssueCode(ctx context.Context, userID int64) (models.ReferralCode, error) {
	if rc, err := s.store.GetReferralCodeByOwner(ctx, userID); err == nil {
		return rc, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.ReferralCode{}, apperr.Normalize(err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		rc := models.ReferralCode{
			UserID:        userID,
			Code:          newCode(),
			TotalEarnings: decimal.Zero,
			CreatedAt:     time.Now(),
		}
		err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.FindUser(ctx, userID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.NotFound("user")
				}
				return err
			}
			return tx.CreateReferralCode(ctx, &rc)
		})
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return models.ReferralCode{}, apperr.Normalize(err)
		}
		// Either a concurrent call created this user's code, or the random code collided.
		if existing, err := s.store.GetReferralCodeByOwner(ctx, userID); err == nil {
			return existing, nil
		}
	}
	return models.ReferralCode{}, apperr.Aborted(errors.New("could not allocate a unique referral code"))
}

// EarningsSummary is the referrer's view of their code.
type EarningsSummary struct {
	Code          string                      `json:"code"`
	TotalEarnings decimal.Decimal             `json:"totalEarnings"`
	Commissions   []models.ReferralCommission `json:"commissions"`
}

func (s *Service) Commissions(ctx context.Context, userID int64) (EarningsSummary, error) {
	rc, err := s.store.GetReferralCodeByOwner(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return EarningsSummary{}, apperr.NotFound("referral code")
	}
	if err != nil {
		return EarningsSummary{}, apperr.Normalize(err)
	}
	list, err := s.store.ListCommissions(ctx, rc.ID)
	if err != nil {
		return EarningsSummary{}, apperr.Normalize(err)
	}
	if list == nil {
		list = []models.ReferralCommission{}
	}
	return EarningsSummary{Code: rc.Code, TotalEarnings: rc.TotalEarnings, Commissions: list}, nil
}

func newCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:codeLength])
}
