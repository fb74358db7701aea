package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/accounts"
	"github.com/01moynul/taptosell-checkout/internal/auth"
	"github.com/01moynul/taptosell-checkout/internal/catalog"
	"github.com/01moynul/taptosell-checkout/internal/database"
	"github.com/01moynul/taptosell-checkout/internal/events"
	"github.com/01moynul/taptosell-checkout/internal/handlers"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/orders"
	"github.com/01moynul/taptosell-checkout/internal/payment"
	"github.com/01moynul/taptosell-checkout/internal/referral"
	"github.com/01moynul/taptosell-checkout/internal/store/memory"
	"github.com/01moynul/taptosell-checkout/internal/wallet"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router  *gin.Engine
	store   *memory.Store
	product models.Product
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	s := memory.New()
	require.NoError(t, database.Seed(context.Background(), s, database.SeedOptions{
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-secret",
		Plans:         database.DefaultPlans,
	}, log))

	product := s.PutProduct(models.Product{
		Name:         "Desk Lamp",
		Price:        decimal.NewFromInt(100),
		StockCount:   5,
		CashbackRate: decimal.NewFromInt(5),
	})

	tokens := auth.NewManager("test-secret", time.Hour)
	refs := referral.NewService(s, decimal.NewFromInt(10), decimal.NewFromInt(5), log)
	h := &handlers.Handlers{
		Orders:    orders.NewEngine(s, payment.Unavailable{}, refs, events.NopPublisher{}, log),
		Wallets:   wallet.NewService(s, log),
		Accounts:  accounts.NewService(s, tokens, log),
		Referrals: refs,
		Catalog:   catalog.NewService(s, log),
		Logger:    log,
	}
	router := SetupRouter(h, Options{Tokens: tokens, Users: s, CORSOrigin: "http://localhost:5173"})
	return &testServer{router: router, store: s, product: product}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, email, password string) (string, models.User) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User
}

func (ts *testServer) customer(t *testing.T, email string) (string, models.User) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/register", "", gin.H{
		"fullName": "Test Customer",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return ts.login(t, email, "password123")
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodOptions, "/v1/checkout", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware("*"))
	r.GET("/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/v1/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeError(t, w).Error.Kind)

	w = ts.do(t, http.MethodGet, "/v1/wallet", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestManagerRoutesRequireRole(t *testing.T) {
	ts := newTestServer(t)
	token, user := ts.customer(t, "buyer@example.com")

	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/manager/wallets/%d/deposit", user.ID), token,
		gin.H{"amount": "100", "reference": "self-service"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", decodeError(t, w).Error.Kind)
}

func TestCheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.login(t, "admin@example.com", "admin-secret")
	token, user := ts.customer(t, "buyer@example.com")

	// 1. Fund the wallet.
	w := ts.do(t, http.MethodPost, fmt.Sprintf("/v1/manager/wallets/%d/deposit", user.ID), adminToken,
		gin.H{"amount": "1000", "reference": "bank-123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 2. Check out two lamps with the wallet.
	checkout := gin.H{
		"items":           []gin.H{{"productId": ts.product.ID, "quantity": 2}},
		"paymentMethod":   "wallet",
		"deliveryAddress": "12 Long Street",
	}
	w = ts.do(t, http.MethodPost, "/v1/checkout", token, checkout, "Idempotency-Key", "cart-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var placed orders.PlaceOrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.True(t, placed.Order.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, placed.CashbackEarned.Equal(decimal.NewFromInt(10)))
	assert.False(t, placed.Replayed)

	// 3. Same key replays the first result.
	w = ts.do(t, http.MethodPost, "/v1/checkout", token, checkout, "Idempotency-Key", "cart-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replay orders.PlaceOrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replay))
	assert.True(t, replay.Replayed)
	assert.Equal(t, placed.Order.ID, replay.Order.ID)

	// 4. Balance is 1000 - 200 + 10.
	w = ts.do(t, http.MethodGet, "/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bal struct {
		CurrentBalance decimal.Decimal `json:"currentBalance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.True(t, bal.CurrentBalance.Equal(decimal.NewFromInt(810)), bal.CurrentBalance.String())

	// 5. History filtered by type.
	w = ts.do(t, http.MethodGet, "/v1/wallet/transactions?type=cashback", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Transactions []models.WalletTransaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.Transactions, 1)
	assert.True(t, hist.Transactions[0].Amount.Equal(decimal.NewFromInt(10)))

	// 6. The order is visible to its owner only.
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/orders/%d", placed.Order.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	otherToken, _ := ts.customer(t, "other@example.com")
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/orders/%d", placed.Order.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 7. Manager moves the order along.
	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/v1/manager/orders/%d/status", placed.Order.ID), adminToken,
		gin.H{"status": "processing"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPatch, fmt.Sprintf("/v1/manager/orders/%d/status", placed.Order.ID), adminToken,
		gin.H{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidTransition", decodeError(t, w).Error.Kind)
}

func TestCheckoutFailures(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.customer(t, "buyer@example.com")

	tests := []struct {
		name   string
		body   gin.H
		status int
		kind   string
	}{
		{
			name:   "empty cart",
			body:   gin.H{"items": []gin.H{}, "paymentMethod": "wallet", "deliveryAddress": "x"},
			status: http.StatusBadRequest,
			kind:   "InvalidRequest",
		},
		{
			name:   "unknown product",
			body:   gin.H{"items": []gin.H{{"productId": 999, "quantity": 1}}, "paymentMethod": "wallet", "deliveryAddress": "x"},
			status: http.StatusNotFound,
			kind:   "ProductNotFound",
		},
		{
			name:   "not enough stock",
			body:   gin.H{"items": []gin.H{{"productId": ts.product.ID, "quantity": 6}}, "paymentMethod": "wallet", "deliveryAddress": "x"},
			status: http.StatusBadRequest,
			kind:   "InsufficientStock",
		},
		{
			name:   "empty wallet",
			body:   gin.H{"items": []gin.H{{"productId": ts.product.ID, "quantity": 1}}, "paymentMethod": "wallet", "deliveryAddress": "x"},
			status: http.StatusBadRequest,
			kind:   "InsufficientFunds",
		},
		{
			name:   "no payment provider",
			body:   gin.H{"items": []gin.H{{"productId": ts.product.ID, "quantity": 1}}, "paymentMethod": "mobile", "deliveryAddress": "x", "phone": "0123"},
			status: http.StatusPaymentRequired,
			kind:   "PaymentNotAuthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/v1/checkout", token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.kind, decodeError(t, w).Error.Kind)
		})
	}

	p, err := ts.store.GetProduct(context.Background(), ts.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockCount)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.customer(t, "buyer@example.com")

	w := ts.do(t, http.MethodPost, "/v1/wallet/withdraw", token, gin.H{"amount": "50", "reference": "bank"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InsufficientFunds", decodeError(t, w).Error.Kind)
}

func TestReferralAndSettings(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.customer(t, "referrer@example.com")

	w := ts.do(t, http.MethodPost, "/v1/referral-codes", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var issued struct {
		ReferralCode models.ReferralCode `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	assert.Len(t, issued.ReferralCode.Code, 8)

	w = ts.do(t, http.MethodGet, "/v1/referral-codes/me/commissions", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/v1/settings/auto-invest", token, gin.H{"enabled": true})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"autoInvest":true}`, w.Body.String())

	w = ts.do(t, http.MethodPut, "/v1/settings/auto-invest", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/v1/investment-plans", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var plans struct {
		Plans []models.InvestmentPlan `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	assert.Len(t, plans.Plans, 3)
}

func TestCatalogRoutes(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.login(t, "admin@example.com", "admin-secret")

	w := ts.do(t, http.MethodPost, "/v1/manager/products", adminToken, gin.H{
		"name": "Notebook", "price": "12.50", "stockCount": 3, "cashbackRate": "2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/manager/products/%d/restock", created.Product.ID), adminToken,
		gin.H{"quantity": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/products/%d", created.Product.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 10, got.Product.StockCount)

	w = ts.do(t, http.MethodGet, "/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Products, 2)

	w = ts.do(t, http.MethodGet, "/v1/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
