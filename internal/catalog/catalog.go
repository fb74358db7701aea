// Package catalog manages the products the checkout engine sells.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	store  store.Store
	logger *zap.Logger
}

func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

type ProductInput struct {
	Name         string
	Price        decimal.Decimal
	StockCount   int
	CashbackRate decimal.Decimal
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperr.InvalidRequest("product name is required")
	case !in.Price.IsPositive():
		return apperr.InvalidRequest("price must be positive")
	case !in.Price.Equal(in.Price.Round(2)):
		return apperr.InvalidRequest("price must have at most two decimal places")
	case in.StockCount < 0:
		return apperr.InvalidRequest("stock count must not be negative")
	case in.CashbackRate.IsNegative() || in.CashbackRate.GreaterThan(hundred):
		return apperr.InvalidRequest("cashback rate must be between 0 and 100")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	list, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, productID int64) (models.Product, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Product{}, apperr.ProductNotFound(productID)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create adds a product. Price and stock changes after this go through
// Restock and checkout only.
func (s *Service) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	now := time.Now()
	p := models.Product{
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price,
		StockCount:   in.StockCount,
		CashbackRate: in.CashbackRate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateProduct(ctx, &p)
	})
	if err != nil {
		return models.Product{}, apperr.Normalize(err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Restock adds qty units and returns the product as committed.
func (s *Service) Restock(ctx context.Context, productID int64, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, apperr.InvalidRequest("quantity must be positive")
	}

	var p models.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetProductForUpdate(ctx, productID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ProductNotFound(productID)
			}
			return err
		}
		if err := tx.AddStock(ctx, productID, qty, time.Now()); err != nil {
			return err
		}
		var err error
		p, err = tx.GetProductForUpdate(ctx, productID)
		return err
	})
	if err != nil {
		return models.Product{}, apperr.Normalize(err)
	}

	s.logger.Info("Product restocked",
		zap.Int64("product_id", productID),
		zap.Int("added", qty),
		zap.Int("stock_count", p.StockCount))
	return p, nil
}
