package events

import (
	"context"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPlacedEvent is emitted once per committed checkout.
type OrderPlacedEvent struct {
	EventID       string            `json:"event_id"`
	Type          string            `json:"type"`
	OrderID       int64             `json:"order_id"`
	UserID        int64             `json:"user_id"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	TotalCashback decimal.Decimal   `json:"total_cashback"`
	PaymentMethod string            `json:"payment_method"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Items         []OrderPlacedItem `json:"items"`
	Timestamp     time.Time         `json:"timestamp"`
	RequestID     string            `json:"request_id"`
}

// NewOrderPlaced builds the event for a freshly committed order.
func NewOrderPlaced(o models.Order, requestID string) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return OrderPlacedEvent{
		EventID:       uuid.NewString(),
		Type:          TypeOrderPlaced,
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		TotalCashback: o.TotalCashback,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		Items:         items,
		Timestamp:     time.Now().UTC(),
		RequestID:     requestID,
	}
}

// Publisher delivers events after the unit of work that produced them has
// committed. Delivery is best-effort: callers log failures and move on.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	Close() error
}

// NopPublisher drops everything. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlacedEvent) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
