package handlers

import (
	"net/http"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- Inputs ---

type CreateProductInput struct {
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	StockCount   int             `json:"stockCount" binding:"gte=0"`
	CashbackRate decimal.Decimal `json:"cashbackRate"`
}

// ListProducts is the handler for GET /v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	list, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

// GetProduct is the handler for GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid product id"))
		return
	}
	p, err := h.Catalog.Get(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// CreateProduct is the handler for POST /v1/manager/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.Catalog.Create(c.Request.Context(), catalog.ProductInput{
		Name:         input.Name,
		Price:        input.Price,
		StockCount:   input.StockCount,
		CashbackRate: input.CashbackRate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

// RestockProduct is the handler for POST /v1/manager/products/:id/restock
func (h *Handlers) RestockProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid product id"))
		return
	}
	var input struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.Catalog.Restock(c.Request.Context(), productID, input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}
