package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

type fakeSender struct {
	mu     sync.Mutex
	err    error
	bodies []string
	attrs  []map[string]string
	calls  int
}

func (f *fakeSender) SendOrderMessage(ctx context.Context, body string, attributes map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	f.attrs = append(f.attrs, attributes)
	return nil
}

func sampleChange() orders.Change {
	return orders.Change{
		Type: orders.ChangeCancelled,
		Order: orders.Order{
			ID:             "o1",
			OrderNumber:    "ORD1000",
			CustomerID:     "c1",
			SellerID:       "s1",
			Status:         orders.StatusCancelled,
			PaymentStatus:  orders.PaymentUnpaid,
			ShippingStatus: orders.ShippingPending,
			PaymentMethod:  "cod",
			FinalTotal:     decimal.NewFromInt(250000),
		},
		FromStatus: orders.StatusPending,
	}
}

func TestPublish_EncodesEvent(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, nil)

	ctx := WithCorrelationID(context.Background(), "req-1")
	require.NoError(t, p.Publish(ctx, sampleChange()))

	require.Len(t, sender.bodies, 1)
	var ev OrderEvent
	require.NoError(t, json.Unmarshal([]byte(sender.bodies[0]), &ev))
	assert.Equal(t, "order.cancelled", ev.Type)
	assert.Equal(t, "o1", ev.OrderID)
	assert.Equal(t, "PENDING", ev.FromStatus)
	assert.Equal(t, "CANCELLED", ev.Status)
	assert.Equal(t, "250000", ev.FinalTotal)
	assert.Equal(t, "req-1", ev.CorrelationID)
	assert.NotEmpty(t, ev.EventID)

	assert.Equal(t, "order.cancelled", sender.attrs[0]["event_type"])
	assert.Equal(t, "req-1", sender.attrs[0]["correlation_id"])
}

func TestPublish_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("queue down")}
	p := NewPublisher(sender, nil)
	ctx := context.Background()

	for i := 0; i < tripAfter; i++ {
		assert.Error(t, p.Publish(ctx, sampleChange()))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(ctx, sampleChange())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, tripAfter, sender.calls, "open breaker must not call the sender")
}

func TestOrderChanged_SwallowsErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("queue down")}
	p := NewPublisher(sender, nil)

	assert.NotPanics(t, func() { p.OrderChanged(context.Background(), sampleChange()) })
	assert.Equal(t, 1, sender.calls)
}
