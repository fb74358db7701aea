package handlers

import (
	"net/http"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Wallet HTTP Handlers ---
//

// GetMyWallet is the handler for GET /v1/wallet
func (h *Handlers) GetMyWallet(c *gin.Context) {
	summary, err := h.Wallets.Balance(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentBalance": summary.Balance})
}

// GetMyTransactions is the handler for GET /v1/wallet/transactions?type=
func (h *Handlers) GetMyTransactions(c *gin.Context) {
	txType := models.TransactionType(c.Query("type"))
	list, err := h.Wallets.History(c.Request.Context(), currentUserID(c), txType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

type amountInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// RequestWithdrawal is the handler for POST /v1/wallet/withdraw
func (h *Handlers) RequestWithdrawal(c *gin.Context) {
	var input amountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	entry, err := h.Wallets.Withdraw(c.Request.Context(), currentUserID(c), input.Amount, input.Reference)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": entry, "currentBalance": entry.BalanceAfter})
}

// ManagerDeposit is the handler for POST /v1/manager/wallets/:userId/deposit
func (h *Handlers) ManagerDeposit(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid user id"))
		return
	}
	var input amountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	entry, err := h.Wallets.Deposit(c.Request.Context(), userID, input.Amount, input.Reference)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

// GetMyInvestments is the handler for GET /v1/investments
func (h *Handlers) GetMyInvestments(c *gin.Context) {
	list, err := h.Wallets.Investments(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": list})
}

// ListInvestmentPlans is the handler for GET /v1/investment-plans
func (h *Handlers) ListInvestmentPlans(c *gin.Context) {
	list, err := h.Wallets.Plans(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": list})
}
