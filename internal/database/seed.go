package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	Plans         []PlanSeed
}

type PlanSeed struct {
	Name         string
	MinAmount    decimal.Decimal
	DurationDays int
	ReturnRate   decimal.Decimal
}

// DefaultPlans is the plan catalog a fresh install starts with.
var DefaultPlans = []PlanSeed{
	{Name: "Starter Saver", MinAmount: decimal.NewFromInt(1000), DurationDays: 30, ReturnRate: decimal.NewFromInt(6)},
	{Name: "Growth Builder", MinAmount: decimal.NewFromInt(5000), DurationDays: 90, ReturnRate: decimal.NewFromInt(9)},
	{Name: "Premium Yield", MinAmount: decimal.NewFromInt(10000), DurationDays: 180, ReturnRate: decimal.NewFromInt(12)},
}

// Seed makes sure the administrator account and the investment plan
// catalog exist. It is called once at startup and is safe to repeat.
func Seed(ctx context.Context, s store.Store, opts SeedOptions, logger *zap.Logger) error {
	return s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// 1. --- Administrator ---
		if opts.AdminEmail != "" {
			created, err := ensureAdmin(ctx, tx, opts.AdminEmail, opts.AdminPassword)
			if err != nil {
				return err
			}
			if created {
				logger.Info("Seeded administrator", zap.String("email", opts.AdminEmail))
			}
		}

		// 2. --- Investment plans, keyed by slug ---
		for _, p := range opts.Plans {
			plan := models.InvestmentPlan{
				Slug:         slug.Make(p.Name),
				Name:         p.Name,
				MinAmount:    p.MinAmount,
				DurationDays: p.DurationDays,
				ReturnRate:   p.ReturnRate,
				IsActive:     true,
				CreatedAt:    time.Now(),
			}
			if err := tx.SavePlan(ctx, &plan); err != nil {
				return fmt.Errorf("seed plan %s: %w", plan.Slug, err)
			}
		}
		logger.Info("Seeded investment plans", zap.Int("count", len(opts.Plans)))
		return nil
	})
}

func ensureAdmin(ctx context.Context, tx store.Users, email, password string) (bool, error) {
	_, err := tx.FindUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("find admin: %w", err)
	}
	if password == "" {
		return false, errors.New("ADMIN_PASSWORD is required to create the administrator")
	}

	var pw models.Password
	if err := pw.Set(password); err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	now := time.Now()
	admin := models.User{
		Role:         models.RoleAdministrator,
		Email:        email,
		PasswordHash: pw.Hash,
		FullName:     "Administrator",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.CreateUser(ctx, &admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
