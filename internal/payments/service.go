package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

// OrderPayer is the part of orders.Service payments need.
type OrderPayer interface {
	Get(ctx context.Context, orderID, requesterID string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, u orders.StatusUpdate) (*orders.Order, error)
}

type Service struct {
	repo    Repository
	orders  OrderPayer
	methods map[string]Method
	sorted  []Method
	log     *slog.Logger
	nowFunc func() time.Time
}

func NewService(repo Repository, ord OrderPayer, methods []Method, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		repo:    repo,
		orders:  ord,
		methods: make(map[string]Method, len(methods)),
		log:     log,
		nowFunc: time.Now,
	}
	for _, m := range methods {
		s.methods[m.ID] = m
		s.sorted = append(s.sorted, m)
	}
	sortMethods(s.sorted)
	return s
}

// Methods returns the accepted payment methods by display order.
func (s *Service) Methods() []Method {
	return append([]Method(nil), s.sorted...)
}

// ForOrder returns the customer's order together with its payment attempts.
func (s *Service) ForOrder(ctx context.Context, customerID, orderID string) (*orders.Order, []Payment, error) {
	o, err := s.orders.Get(ctx, orderID, customerID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	return o, list, nil
}

// Process starts paying the customer's order. An empty methodID means the
// method chosen at checkout. Methods without a redirect settle immediately
// and mark the order PAID; redirect methods wait for Callback. A pending
// attempt for the order is returned instead of starting a second one.
func (s *Service) Process(ctx context.Context, customerID, orderID, methodID string) (*Payment, error) {
	o, err := s.orders.Get(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if methodID == "" {
		methodID = o.PaymentMethod
	}
	m, ok := s.methods[methodID]
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %q", ErrMethodNotFound, methodID)
	case m.ID == MethodCOD:
		return nil, fmt.Errorf("order %s: %w: cash on delivery", orderID, ErrNotPayable)
	case m.ID != o.PaymentMethod:
		return nil, fmt.Errorf("order %s: %w: checked out with %s", orderID, ErrMethodMismatch, o.PaymentMethod)
	case o.PaymentStatus != orders.PaymentUnpaid:
		return nil, fmt.Errorf("order %s: %w", orderID, ErrAlreadyPaid)
	case o.Status.Terminal():
		return nil, fmt.Errorf("%w: order %s is %s", orders.ErrInvalidTransition, orderID, o.Status)
	}

	existing, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for i := range existing {
		if existing[i].Status == StatusPending {
			return &existing[i], nil
		}
	}

	p := Payment{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		CustomerID: customerID,
		MethodID:   m.ID,
		Amount:     o.FinalTotal,
		Status:     StatusPending,
		CreatedAt:  s.nowFunc().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.log.InfoContext(ctx, "payment started",
		slog.String("payment_id", p.ID),
		slog.String("order_id", p.OrderID),
		slog.String("method", p.MethodID),
	)

	if m.RequiresRedirect {
		return &p, nil
	}
	return s.settle(ctx, &p, StatusSuccess, newTransactionID())
}

// Callback records the gateway outcome of a pending payment. Repeating a
// callback with the same outcome is a no-op apart from re-marking the order.
func (s *Service) Callback(ctx context.Context, customerID, paymentID string, status Status, transactionID string) (*Payment, error) {
	if status != StatusSuccess && status != StatusFailed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, status)
	}
	p, err := s.get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.CustomerID != customerID {
		return nil, fmt.Errorf("payment %s: %w", paymentID, orders.ErrForbidden)
	}
	if transactionID == "" {
		transactionID = newTransactionID()
	}
	return s.settle(ctx, p, status, transactionID)
}

// settle moves p out of PENDING and, on success, marks the order PAID through
// the order's compare-and-swap path.
func (s *Service) settle(ctx context.Context, p *Payment, to Status, transactionID string) (*Payment, error) {
	if p.Status == StatusPending {
		at := s.nowFunc().UTC()
		err := s.repo.Settle(ctx, p.ID, StatusPending, to, transactionID, at)
		switch {
		case errors.Is(err, ErrStatusConflict):
			// a concurrent callback won; judge against what it wrote
			if p, err = s.get(ctx, p.ID); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, fmt.Errorf("settle payment: %w", err)
		default:
			p.Status = to
			p.TransactionID = transactionID
			p.CompletedAt = &at
		}
	}
	if p.Status != to {
		return nil, fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, ErrAlreadySettled)
	}
	if to != StatusSuccess {
		return p, nil
	}

	paid := orders.PaymentPaid
	if _, err := s.orders.UpdateStatus(ctx, p.OrderID, orders.StatusUpdate{PaymentStatus: &paid}); err != nil {
		s.log.ErrorContext(ctx, "payment captured but order not marked paid",
			slog.String("payment_id", p.ID),
			slog.String("order_id", p.OrderID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("mark order %s paid: %w", p.OrderID, err)
	}
	s.log.InfoContext(ctx, "payment succeeded",
		slog.String("payment_id", p.ID),
		slog.String("order_id", p.OrderID),
	)
	return p, nil
}

func (s *Service) get(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	return p, nil
}

func newTransactionID() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}
