package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Authorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authorize", r.URL.Path)

		var req authorizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		approved := req.Amount.LessThanOrEqual(decimal.NewFromInt(1000))
		_ = json.NewEncoder(w).Encode(authorizeResponse{Approved: approved, Reference: "ref-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())

	ok, err := c.Authorize(context.Background(), "0700000000", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Authorize(context.Background(), "0700000000", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ok, err := NewClient(srv.URL, time.Second, zap.NewNop()).Authorize(context.Background(), "07", decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ok, err := NewClient(srv.URL, 20*time.Millisecond, zap.NewNop()).Authorize(context.Background(), "07", decimal.NewFromInt(1))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestUnavailable(t *testing.T) {
	ok, err := Unavailable{}.Authorize(context.Background(), "07", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, ok)
}
