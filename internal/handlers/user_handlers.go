package handlers

import (
	"net/http"

	"github.com/01moynul/taptosell-checkout/internal/accounts"
	"github.com/gin-gonic/gin"
)

// --- User Registration ---

// RegisterUserInput is separate from models.User so callers cannot set
// an id or a role.
type RegisterUserInput struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber"`
}

// Register is the handler for POST /v1/register
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	// 2. --- Create the user ---
	user, err := h.Accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Send Success Response ---
	// The password hash is tagged json:"-".
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	token, user, err := h.Accounts.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// --- Settings ---

// SetAutoInvest is the handler for PUT /v1/settings/auto-invest
func (h *Handlers) SetAutoInvest(c *gin.Context) {
	var input struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.Accounts.SetAutoInvest(c.Request.Context(), currentUserID(c), *input.Enabled)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"autoInvest": user.AutoInvest})
}
