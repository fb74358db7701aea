package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateReferralCode is the handler for POST /v1/referral-codes
// It returns the caller's existing code if they already have one.
func (h *Handlers) CreateReferralCode(c *gin.Context) {
	rc, err := h.Referrals.IssueCode(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralCode": rc})
}

// GetMyCommissions is the handler for GET /v1/referral-codes/me/commissions
func (h *Handlers) GetMyCommissions(c *gin.Context) {
	summary, err := h.Referrals.Commissions(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
