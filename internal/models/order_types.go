package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks whether money for the order has been collected.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentMethodWallet is the only method settled directly against the ledger.
const PaymentMethodWallet = "wallet"

// Order is the model for the 'orders' table
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	DeliveryAddress string          `json:"deliveryAddress" db:"delivery_address"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	TotalCashback   decimal.Decimal `json:"totalCashback" db:"total_cashback"`
	IdempotencyKey  *string         `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
// UnitPrice is a snapshot taken at checkout, not a live reference to the product.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"orderId" db:"order_id"`
	ProductID int64           `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Cashback  decimal.Decimal `json:"cashback" db:"cashback"`
	Position  int             `json:"position" db:"position"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// LineTotal is UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
