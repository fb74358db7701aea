package handlers

import (
	"net/http"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/middleware"
	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/01moynul/taptosell-checkout/internal/orders"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers ---
//

type CheckoutInput struct {
	Items           []orders.ItemRequest `json:"items"`
	PaymentMethod   string               `json:"paymentMethod"`
	DeliveryAddress string               `json:"deliveryAddress"`
	Phone           string               `json:"phone"`
	ReferralCode    string               `json:"referralCode"`
	IdempotencyKey  string               `json:"idempotencyKey"`
}

// Checkout is the handler for POST /v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind Input ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	key := input.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}

	// 2. --- Run the engine ---
	result, err := h.Orders.PlaceOrder(c.Request.Context(), orders.PlaceOrderRequest{
		UserID:          currentUserID(c),
		Items:           input.Items,
		PaymentMethod:   input.PaymentMethod,
		DeliveryAddress: input.DeliveryAddress,
		Phone:           input.Phone,
		ReferralCode:    input.ReferralCode,
		IdempotencyKey:  key,
		RequestID:       c.GetString(middleware.CtxRequestID),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Send Response ---
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// GetMyOrders is the handler for GET /v1/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GetOrderDetails is the handler for GET /v1/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid order id"))
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus is the handler for PATCH /v1/manager/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid order id"))
		return
	}
	var input struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), orderID, input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ConfirmOrderPayment is the handler for POST /v1/manager/orders/:id/confirm-payment
func (h *Handlers) ConfirmOrderPayment(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		h.respondError(c, apperr.InvalidRequest("invalid order id"))
		return
	}
	result, err := h.Orders.ConfirmPayment(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
