// Package accounts registers users, checks their passwords and stores their
// per-user settings.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// TokenIssuer is satisfied by *auth.Manager.
type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

type Service struct {
	store  store.Store
	tokens TokenIssuer
	logger *zap.Logger
}

func NewService(s store.Store, tokens TokenIssuer, logger *zap.Logger) *Service {
	return &Service{store: s, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Role        string
}

// Register creates a user. Role defaults to customer.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	// 1. --- Validate ---
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.InvalidRequest("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, apperr.InvalidRequest("password must be at least %d characters", minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}

	// 2. --- Hash the password ---
	var pw models.Password
	if err := pw.Set(in.Password); err != nil {
		return models.User{}, apperr.Aborted(fmt.Errorf("hash password: %w", err))
	}

	// 3. --- Insert ---
	now := time.Now()
	user := models.User{
		Role:         role,
		Email:        email,
		PasswordHash: pw.Hash,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateUser(ctx, &user)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, apperr.Conflict("a user with this email already exists")
	}
	if err != nil {
		return models.User{}, apperr.Normalize(err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// Authenticate checks the credentials and returns a session token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, models.User, error) {
	invalid := apperr.Unauthorized("invalid email or password")

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return "", models.User{}, invalid
	}
	if err != nil {
		return "", models.User{}, apperr.Normalize(err)
	}

	pw := models.Password{Hash: user.PasswordHash}
	ok, err := pw.Matches(password)
	if err != nil || !ok {
		return "", models.User{}, invalid
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", models.User{}, apperr.Aborted(fmt.Errorf("sign token: %w", err))
	}
	return token, user, nil
}

func (s *Service) SetAutoInvest(ctx context.Context, userID int64, enabled bool) (models.User, error) {
	var user models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.SetAutoInvest(ctx, userID, enabled, time.Now()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("user")
			}
			return fmt.Errorf("set auto invest: %w", err)
		}
		var err error
		user, err = tx.FindUser(ctx, userID)
		return err
	})
	if err != nil {
		return models.User{}, apperr.Normalize(err)
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, apperr.Normalize(err)
	}
	return u, nil
}
