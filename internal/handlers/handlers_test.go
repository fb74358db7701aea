package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handlers{Logger: zap.NewNop()}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "classified",
			err:    apperr.InsufficientFunds(),
			status: http.StatusBadRequest,
			body:   `{"error":{"kind":"InsufficientFunds","message":"` + apperr.InsufficientFunds().Message + `"}}`,
		},
		{
			name:   "product id is reported",
			err:    apperr.InsufficientStock(7),
			status: http.StatusBadRequest,
			body:   `{"error":{"kind":"InsufficientStock","message":"insufficient stock for product 7","productId":7}}`,
		},
		{
			name:   "infrastructure failure is hidden",
			err:    errors.New("dial tcp 10.0.0.3:3306: connection refused"),
			status: http.StatusInternalServerError,
			body:   `{"error":{"kind":"TransactionAborted","message":"something went wrong, please try again"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, v := range []string{"", "abc", "0", "-3"} {
		c.Params = gin.Params{{Key: "id", Value: v}}
		_, ok := pathID(c, "id")
		assert.False(t, ok, v)
	}
}
