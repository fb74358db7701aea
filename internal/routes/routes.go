package routes

import (
	"net/http"

	"github.com/01moynul/taptosell-checkout/internal/handlers"
	"github.com/01moynul/taptosell-checkout/internal/middleware"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured frontend origin to call the API.
// An empty origin disables the CORS headers entirely.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin == "" {
			c.Next()
			return
		}

		// 1. Allow only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		// Browsers refuse credentials with a wildcard origin.
		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		// 2. Allow the headers we actually use
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Idempotency-Key, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH")

		// 3. Handle the "Preflight" OPTIONS request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Options carries the collaborators the router needs besides the handlers.
type Options struct {
	Tokens     middleware.TokenValidator
	Users      middleware.UserLookup
	CORSOrigin string
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(h.Logger))

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.CORSOrigin))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Public Plan Catalog ---
		v1.GET("/investment-plans", h.ListInvestmentPlans)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			auth.POST("/checkout", h.Checkout)

			auth.GET("/orders", h.GetMyOrders)
			auth.GET("/orders/:id", h.GetOrderDetails)

			auth.GET("/wallet", h.GetMyWallet)
			auth.GET("/wallet/transactions", h.GetMyTransactions)
			auth.POST("/wallet/withdraw", h.RequestWithdrawal)

			auth.GET("/investments", h.GetMyInvestments)
			auth.PUT("/settings/auto-invest", h.SetAutoInvest)

			auth.POST("/referral-codes", h.CreateReferralCode)
			auth.GET("/referral-codes/me/commissions", h.GetMyCommissions)
		}

		// --- Manager-Only Routes ---
		manager := v1.Group("/manager")
		manager.Use(middleware.AuthMiddleware(opts.Tokens))
		manager.Use(middleware.RequireRole(opts.Users, models.RoleManager, models.RoleAdministrator))
		{
			manager.POST("/products", h.CreateProduct)
			manager.POST("/products/:id/restock", h.RestockProduct)
			manager.POST("/wallets/:userId/deposit", h.ManagerDeposit)
			manager.PATCH("/orders/:id/status", h.UpdateOrderStatus)
			manager.POST("/orders/:id/confirm-payment", h.ConfirmOrderPayment)
		}
	}

	return router
}
