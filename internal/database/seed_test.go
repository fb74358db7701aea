package database

import (
	"context"
	"testing"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "change-me-now", Plans: DefaultPlans}

	require.NoError(t, Seed(ctx, s, opts, zap.NewNop()))
	require.NoError(t, Seed(ctx, s, opts, zap.NewNop()))

	admin, err := s.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, admin.Role)
	ok, err := (&models.Password{Hash: admin.PasswordHash}).Matches("change-me-now")
	require.NoError(t, err)
	assert.True(t, ok)

	plans, err := s.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, len(DefaultPlans))
	slugs := map[string]bool{}
	for _, p := range plans {
		slugs[p.Slug] = true
	}
	assert.True(t, slugs["starter-saver"])
	assert.True(t, slugs["premium-yield"])
}

func TestSeed_AdminNeedsPassword(t *testing.T) {
	err := Seed(context.Background(), memory.New(), SeedOptions{AdminEmail: "admin@example.com"}, zap.NewNop())
	assert.Error(t, err)
}
