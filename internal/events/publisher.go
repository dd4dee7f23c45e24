package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

// tripAfter consecutive send failures open the breaker.
const tripAfter = 5

// Sender delivers one encoded event. *aws.Publisher satisfies it.
type Sender interface {
	SendOrderMessage(ctx context.Context, body string, attributes map[string]string) error
}

type correlationKey struct{}

// WithCorrelationID tags events published under ctx with id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Publisher sends order changes to the queue behind a circuit breaker. It is
// an orders.Notifier: publishing happens after the order is committed and a
// failure is logged, never returned to the caller.
type Publisher struct {
	sender  Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *slog.Logger
	nowFunc func() time.Time
}

func NewPublisher(sender Sender, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{sender: sender, log: log, nowFunc: time.Now}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "order-events",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return p
}

// Publish encodes and sends one change.
func (p *Publisher) Publish(ctx context.Context, ch orders.Change) error {
	ev := fromChange(uuid.NewString(), ch, p.nowFunc().UTC())
	ev.CorrelationID = correlationID(ctx)

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"event_type":     ev.Type,
		"order_id":       ev.OrderID,
		"correlation_id": ev.CorrelationID,
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.sender.SendOrderMessage(ctx, string(body), attrs)
	})
	if err != nil {
		return fmt.Errorf("publish %s for order %s: %w", ev.Type, ev.OrderID, err)
	}
	return nil
}

func (p *Publisher) OrderChanged(ctx context.Context, ch orders.Change) {
	err := p.Publish(ctx, ch)
	if err == nil {
		return
	}
	level := slog.LevelError
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		level = slog.LevelWarn
	}
	p.log.Log(ctx, level, "order event not published",
		slog.String("event_type", string(ch.Type)),
		slog.String("order_id", ch.Order.ID),
		slog.Any("error", err),
	)
}

// State exposes the breaker state for health reporting.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}
