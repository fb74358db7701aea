package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("checkout: %w", InsufficientStock(7))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Equal(t, "insufficient stock for product 7", PublicMessage(err))
}

func TestNormalize(t *testing.T) {
	assert.NoError(t, Normalize(nil))

	raw := errors.New("connection reset by peer")
	got := Normalize(raw)
	assert.True(t, errors.Is(got, ErrTransactionAborted))
	assert.True(t, errors.Is(got, raw))
	assert.Equal(t, "something went wrong, please try again", PublicMessage(got))

	funds := InsufficientFunds()
	assert.Same(t, funds, Normalize(funds))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidRequest:       http.StatusBadRequest,
		KindInsufficientStock:    http.StatusBadRequest,
		KindInsufficientFunds:    http.StatusBadRequest,
		KindProductNotFound:      http.StatusNotFound,
		KindPaymentNotAuthorized: http.StatusPaymentRequired,
		KindTransactionAborted:   http.StatusInternalServerError,
		KindInvalidTransition:    http.StatusConflict,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}
