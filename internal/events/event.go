// Package events carries order lifecycle changes from the API to the worker.
package events

import (
	"time"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

// OrderEvent is the payload sent from API -> SQS -> Worker.
type OrderEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     string    `json:"customer_id"`
	SellerID       string    `json:"seller_id"`
	Status         string    `json:"status"`
	FromStatus     string    `json:"from_status,omitempty"`
	PaymentStatus  string    `json:"payment_status"`
	ShippingStatus string    `json:"shipping_status"`
	PaymentMethod  string    `json:"payment_method"`
	FinalTotal     string    `json:"final_total"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func fromChange(eventID string, ch orders.Change, at time.Time) OrderEvent {
	o := ch.Order
	return OrderEvent{
		EventID:        eventID,
		Type:           string(ch.Type),
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		SellerID:       o.SellerID,
		Status:         string(o.Status),
		FromStatus:     string(ch.FromStatus),
		PaymentStatus:  string(o.PaymentStatus),
		ShippingStatus: string(o.ShippingStatus),
		PaymentMethod:  o.PaymentMethod,
		FinalTotal:     o.FinalTotal.String(),
		OccurredAt:     at,
	}
}
