// Package orders owns the order record and its status lifecycle.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

const (
	// FirstOrderNumber is the first value handed out by a fresh sequence.
	FirstOrderNumber = 1000

	defaultMaxAttempts = 8
)

// Notifier is told about every committed change. It runs after the commit,
// so a failing notifier never rolls back an order.
type Notifier interface {
	OrderChanged(ctx context.Context, ch Change)
}

// VoucherResolver loads the voucher a new order refers to. A nil voucher with
// a nil error means "price without a voucher".
type VoucherResolver interface {
	Resolve(ctx context.Context, code string) (*pricing.Voucher, error)
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, n) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service applies the order state machine on top of a Repository.
type Service struct {
	repo        Repository
	seq         Sequence
	calc        *pricing.Calculator
	vouchers    VoucherResolver
	notifiers   []Notifier
	log         *slog.Logger
	nowFunc     func() time.Time
	maxAttempts int
}

func NewService(repo Repository, seq Sequence, calc *pricing.Calculator, vouchers VoucherResolver, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		seq:         seq,
		calc:        calc,
		vouchers:    vouchers,
		log:         slog.Default(),
		nowFunc:     time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prices the items and stores a new PENDING / UNPAID order.
func (s *Service) Create(ctx context.Context, in NewOrder) (*Order, error) {
	var voucher *pricing.Voucher
	if in.VoucherCode != "" && s.vouchers != nil {
		v, err := s.vouchers.Resolve(ctx, in.VoucherCode)
		if err != nil {
			return nil, err
		}
		voucher = v
	}

	priced := make([]pricing.Item, 0, len(in.Items))
	for _, it := range in.Items {
		priced = append(priced, pricing.Item{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	totals, err := s.calc.ComputeTotals(priced, voucher, in.ShippingMethod)
	if err != nil {
		return nil, err
	}

	n, err := s.seq.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	items := make([]LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, it)
	}

	now := s.nowFunc().UTC()
	o := Order{
		ID:                uuid.NewString(),
		OrderNumber:       fmt.Sprintf("ORD%d", n),
		CustomerID:        in.CustomerID,
		SellerID:          in.SellerID,
		Status:            StatusPending,
		PaymentStatus:     PaymentUnpaid,
		ShippingStatus:    ShippingPending,
		Subtotal:          totals.Subtotal,
		DiscountAmount:    totals.DiscountAmount,
		ShippingFee:       totals.ShippingFee,
		Tax:               totals.Tax,
		FinalTotal:        totals.FinalTotal,
		VoucherCode:       totals.VoucherCode,
		ShippingMethod:    in.ShippingMethod,
		PaymentMethod:     in.PaymentMethod,
		ShippingAddressID: in.ShippingAddressID,
		Notes:             in.Notes,
		Items:             items,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
		Seq:               n,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.InfoContext(ctx, "order created",
		slog.String("order_id", o.ID),
		slog.String("order_number", o.OrderNumber),
		slog.String("customer_id", o.CustomerID),
		slog.String("final_total", o.FinalTotal.String()),
	)
	s.notify(ctx, Change{Type: ChangeCreated, Order: o})
	return &o, nil
}

// Get returns an order visible to requesterID. An empty requesterID skips the
// ownership check (administrative reads).
func (s *Service) Get(ctx context.Context, orderID, requesterID string) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if requesterID != "" && o.CustomerID != requesterID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrForbidden)
	}
	return o, nil
}

// ListByCustomer returns the customer's orders newest first, optionally filtered by status.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, status Status) ([]Order, error) {
	list, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	return filterStatus(list, status), nil
}

// ListBySeller returns the seller's orders newest first, optionally filtered by status.
func (s *Service) ListBySeller(ctx context.Context, sellerID string, status Status) ([]Order, error) {
	list, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return filterStatus(list, status), nil
}

// Cancel moves a PENDING or CONFIRMED order owned by requesterID to CANCELLED.
func (s *Service) Cancel(ctx context.Context, orderID, requesterID string) (*Order, error) {
	o, from, err := s.mutate(ctx, orderID, func(o *Order) error {
		if o.CustomerID != requesterID {
			return fmt.Errorf("order %s: %w", orderID, ErrForbidden)
		}
		return applyCancel(o)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order cancelled",
		slog.String("order_id", o.ID),
		slog.String("from", string(from)),
	)
	s.notify(ctx, Change{Type: ChangeCancelled, Order: *o, FromStatus: from})
	return o, nil
}

// UpdateStatus applies an administrative transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, u StatusUpdate) (*Order, error) {
	o, from, err := s.mutate(ctx, orderID, func(o *Order) error {
		return applyUpdate(o, u)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order status updated",
		slog.String("order_id", o.ID),
		slog.String("from", string(from)),
		slog.String("to", string(o.Status)),
		slog.String("payment_status", string(o.PaymentStatus)),
		slog.String("shipping_status", string(o.ShippingStatus)),
	)
	s.notify(ctx, Change{Type: ChangeStatusUpdated, Order: *o, FromStatus: from})
	return o, nil
}

// mutate runs fn against the latest version of the order and commits with a
// compare-and-swap, re-reading on conflict.
func (s *Service) mutate(ctx context.Context, orderID string, fn func(*Order) error) (*Order, Status, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		cur, err := s.repo.Get(ctx, orderID)
		if err != nil {
			return nil, "", fmt.Errorf("get order: %w", err)
		}
		if cur == nil {
			return nil, "", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}

		next := *cur
		if err := fn(&next); err != nil {
			return nil, "", err
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = s.nowFunc().UTC()

		err = s.repo.Update(ctx, next, cur.Version)
		if errors.Is(err, ErrVersionConflict) {
			s.log.DebugContext(ctx, "order version conflict, retrying",
				slog.String("order_id", orderID),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("update order: %w", err)
		}
		return &next, cur.Status, nil
	}
	return nil, "", fmt.Errorf("order %s: %w after %d attempts", orderID, ErrVersionConflict, s.maxAttempts)
}

func (s *Service) notify(ctx context.Context, ch Change) {
	for _, n := range s.notifiers {
		n.OrderChanged(ctx, ch)
	}
}
