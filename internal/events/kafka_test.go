package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/taptosell-checkout/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func sampleOrder() models.Order {
	return models.Order{
		ID:            12,
		UserID:        3,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodWallet,
		PaymentStatus: models.PaymentStatusPaid,
		TotalAmount:   decimal.NewFromInt(30000),
		TotalCashback: decimal.NewFromInt(3000),
		Items:         []models.OrderItem{{ProductID: 1, Quantity: 3, UnitPrice: decimal.NewFromInt(10000)}},
	}
}

func TestKafkaProducer_PublishOrderPlaced(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaProducer{writer: w, timeout: time.Second, logger: zap.NewNop()}

	event := NewOrderPlaced(sampleOrder(), "req-1")
	require.NoError(t, p.PublishOrderPlaced(context.Background(), event))
	require.Len(t, w.msgs, 1)

	assert.Equal(t, "12", string(w.msgs[0].Key))

	var got OrderPlacedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, TypeOrderPlaced, got.Type)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.True(t, got.TotalCashback.Equal(decimal.NewFromInt(3000)))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
}

func TestKafkaProducer_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaProducer{writer: &recordingWriter{err: boom}, timeout: time.Second, logger: zap.NewNop()}

	err := p.PublishOrderPlaced(context.Background(), NewOrderPlaced(sampleOrder(), ""))
	assert.ErrorIs(t, err, boom)
}
