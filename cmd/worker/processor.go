package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/events"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

const paymentCOD = "cod"

type statusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, u orders.StatusUpdate) (*orders.Order, error)
}

type metricRecorder interface {
	Count(ctx context.Context, name string, value float64, dims map[string]string) error
	Amount(ctx context.Context, name string, value float64, dims map[string]string) error
}

// Processor consumes order events from SQS. Cash-on-delivery orders need no
// payment step, so they are confirmed as soon as they are created.
type Processor struct {
	orders  statusUpdater
	metrics metricRecorder
	log     *slog.Logger
}

func NewProcessor(ord statusUpdater, m metricRecorder, log *slog.Logger) *Processor {
	return &Processor{orders: ord, metrics: m, log: log}
}

// Handle receives an SQS batch and reports the messages that failed so only
// those are redelivered.
func (p *Processor) Handle(ctx context.Context, ev lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	var resp lambdaevents.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.ErrorContext(ctx, "worker error",
				slog.String("message_id", rec.MessageId),
				slog.Any("error", err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec lambdaevents.SQSMessage) error {
	var ev events.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}

	log := p.log.With(
		slog.String("order_id", ev.OrderID),
		slog.String("event", ev.Type),
		slog.String("correlation_id", ev.CorrelationID),
	)
	log.InfoContext(ctx, "received order event")

	if err := p.apply(ctx, log, ev); err != nil {
		return err
	}
	// only after success, so a redelivered message is counted once
	p.record(ctx, log, ev)
	return nil
}

func (p *Processor) apply(ctx context.Context, log *slog.Logger, ev events.OrderEvent) error {
	if orders.ChangeType(ev.Type) != orders.ChangeCreated || ev.PaymentMethod != paymentCOD {
		return nil
	}

	o, err := p.orders.UpdateStatus(ctx, ev.OrderID, orders.StatusUpdate{Status: orders.StatusConfirmed})
	switch {
	case errors.Is(err, orders.ErrInvalidTransition):
		// cancelled or already past CONFIRMED
		log.InfoContext(ctx, "order already moved on, skipping confirm")
		return nil
	case err != nil:
		return fmt.Errorf("confirm order %s: %w", ev.OrderID, err)
	}

	log.InfoContext(ctx, "cod order confirmed", slog.String("status", string(o.Status)))
	return nil
}

// record emits CloudWatch metrics. Metric failures never fail the message.
func (p *Processor) record(ctx context.Context, log *slog.Logger, ev events.OrderEvent) {
	if p.metrics == nil {
		return
	}
	dims := map[string]string{"EventType": ev.Type}
	if err := p.metrics.Count(ctx, "OrderEvents", 1, dims); err != nil {
		log.WarnContext(ctx, "emit metric failed", slog.Any("error", err))
	}
	if orders.ChangeType(ev.Type) != orders.ChangeCreated {
		return
	}
	total, err := decimal.NewFromString(ev.FinalTotal)
	if err != nil {
		log.WarnContext(ctx, "bad final_total on event", slog.String("final_total", ev.FinalTotal))
		return
	}
	method := ev.PaymentMethod
	if method == "" {
		method = "unknown"
	}
	if err := p.metrics.Amount(ctx, "OrderValue", total.InexactFloat64(), map[string]string{"PaymentMethod": method}); err != nil {
		log.WarnContext(ctx, "emit metric failed", slog.Any("error", err))
	}
}
