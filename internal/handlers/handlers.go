package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/taptosell-checkout/internal/accounts"
	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/catalog"
	"github.com/01moynul/taptosell-checkout/internal/middleware"
	"github.com/01moynul/taptosell-checkout/internal/orders"
	"github.com/01moynul/taptosell-checkout/internal/referral"
	"github.com/01moynul/taptosell-checkout/internal/wallet"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Orders    *orders.Engine
	Wallets   *wallet.Service
	Accounts  *accounts.Service
	Referrals *referral.Service
	Catalog   *catalog.Service
	Logger    *zap.Logger
}

// respondError writes {error: {kind, message}} with the status for the
// error's kind. Unclassified errors never leak their text.
func (h *Handlers) respondError(c *gin.Context, err error) {
	err = apperr.Normalize(err)
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.CtxRequestID)),
			zap.Error(err))
	}

	body := gin.H{"kind": kind, "message": apperr.PublicMessage(err)}
	if e, ok := err.(*apperr.Error); ok && e.ProductID != 0 {
		body["productId"] = e.ProductID
	}
	c.JSON(status, gin.H{"error": body})
}

// badRequest reports a JSON binding failure.
func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.respondError(c, apperr.InvalidRequest("invalid request body: %v", err))
}

// currentUserID reads the id AuthMiddleware put in the context.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.CtxUserID)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
