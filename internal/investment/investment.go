// Package investment picks the plan that auto-invested cashback goes into and
// builds the resulting Investment.
package investment

import (
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/shopspring/decimal"
)

var daysPercentYear = decimal.NewFromInt(365 * 100)

// SelectPlan returns the active plan with the largest MinAmount that amount
// still qualifies for. Plans sharing that MinAmount resolve to the lowest ID.
// It is a pure function of its inputs.
func SelectPlan(plans []models.InvestmentPlan, amount decimal.Decimal) (models.InvestmentPlan, bool) {
	var (
		best  models.InvestmentPlan
		found bool
	)
	for _, p := range plans {
		if !p.IsActive || p.MinAmount.GreaterThan(amount) {
			continue
		}
		switch {
		case !found:
			best, found = p, true
		case p.MinAmount.GreaterThan(best.MinAmount):
			best = p
		case p.MinAmount.Equal(best.MinAmount) && p.ID < best.ID:
			best = p
		}
	}
	return best, found
}

// ExpectedReturn is simple pro-rated interest:
// principal + principal * rate * days / (365*100), truncated to cents.
func ExpectedReturn(principal, annualRate decimal.Decimal, durationDays int) decimal.Decimal {
	interest := principal.Mul(annualRate).Mul(decimal.NewFromInt(int64(durationDays))).Div(daysPercentYear)
	return principal.Add(interest).Truncate(2)
}

// New builds the Investment for principal placed into plan at now.
func New(userID, orderID int64, plan models.InvestmentPlan, principal decimal.Decimal, now time.Time) models.Investment {
	return models.Investment{
		UserID:         userID,
		PlanID:         plan.ID,
		OrderID:        orderID,
		Principal:      principal,
		CurrentValue:   principal,
		ExpectedReturn: ExpectedReturn(principal, plan.ReturnRate, plan.DurationDays),
		MaturityDate:   now.AddDate(0, 0, plan.DurationDays),
		Status:         models.InvestmentStatusActive,
		CreatedAt:      now,
	}
}
