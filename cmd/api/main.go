package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/accounts"
	"github.com/01moynul/taptosell-checkout/internal/auth"
	"github.com/01moynul/taptosell-checkout/internal/catalog"
	"github.com/01moynul/taptosell-checkout/internal/config"
	"github.com/01moynul/taptosell-checkout/internal/database"
	"github.com/01moynul/taptosell-checkout/internal/events"
	"github.com/01moynul/taptosell-checkout/internal/handlers"
	"github.com/01moynul/taptosell-checkout/internal/logger"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/orders"
	"github.com/01moynul/taptosell-checkout/internal/payment"
	"github.com/01moynul/taptosell-checkout/internal/referral"
	"github.com/01moynul/taptosell-checkout/internal/routes"
	"github.com/01moynul/taptosell-checkout/internal/store"
	"github.com/01moynul/taptosell-checkout/internal/store/memory"
	mysqlstore "github.com/01moynul/taptosell-checkout/internal/store/mysql"
	"github.com/01moynul/taptosell-checkout/internal/wallet"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	if !dotenv {
		zl.Info("No .env file found, using environment variables")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Store ---
	st, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	if err := database.Seed(ctx, st, database.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Plans:         database.DefaultPlans,
	}, zl); err != nil {
		zl.Fatal("Failed to seed store", zap.Error(err))
	}

	// 2. --- External collaborators ---
	var payments orders.Authorizer = payment.Unavailable{}
	if cfg.PaymentAuthURL != "" {
		payments = payment.NewClient(cfg.PaymentAuthURL, cfg.PaymentAuthTimeout, zl)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaProducer(brokers, cfg.KafkaOrderTopic, zl)
	}
	defer publisher.Close()

	// 3. --- Services & Handlers ---
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	refs := referral.NewService(st, cfg.ReferralBonusPercent, cfg.ReferralCommissionPercent, zl)
	app := &handlers.Handlers{
		Orders:    orders.NewEngine(st, payments, refs, publisher, zl),
		Wallets:   wallet.NewService(st, zl),
		Accounts:  accounts.NewService(st, tokens, zl),
		Referrals: refs,
		Catalog:   catalog.NewService(st, zl),
		Logger:    zl,
	}

	router := routes.SetupRouter(app, routes.Options{
		Tokens:     tokens,
		Users:      st,
		CORSOrigin: cfg.CORSAllowOrigin,
	})

	// 4. --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zl.Info("Starting checkout API server",
			zap.String("port", cfg.HTTPPort),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("payments", cfg.PaymentAuthURL != ""),
			zap.Strings("kafka_brokers", cfg.Brokers()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. --- Graceful Shutdown ---
	<-ctx.Done()
	zl.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server shutdown failed", zap.Error(err))
	}
	zl.Info("Server stopped")
}

// openStore returns the configured store and a function that releases it.
func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		s := memory.New()
		for _, p := range demoProducts {
			s.PutProduct(p)
		}
		zl.Warn("Using the in-memory store; data is lost on restart")
		return s, func() {}, nil
	}

	db, err := database.OpenDB(ctx, cfg.DSN, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, zl)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			zl.Error("Failed to close database", zap.Error(err))
		}
	}
	return mysqlstore.New(db, cfg.TxMaxRetries, zl), closeDB, nil
}

var demoProducts = []models.Product{
	{Name: "Wireless Earbuds", Price: decimal.NewFromInt(1500), StockCount: 50, CashbackRate: decimal.NewFromInt(5)},
	{Name: "Smart Watch", Price: decimal.NewFromInt(4200), StockCount: 20, CashbackRate: decimal.NewFromInt(8)},
	{Name: "Laptop Stand", Price: decimal.RequireFromString("899.50"), StockCount: 100, CashbackRate: decimal.NewFromInt(3)},
}
