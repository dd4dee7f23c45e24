// Package checkout turns a cart request into a priced quote or a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-shop-orderflow/internal/catalog"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/vouchers"
)

const (
	defaultMaxConcurrent = 8

	PaymentCOD = "cod"
)

// ErrMixedSellers is wrapped with pricing.ErrInvalidCart: one order belongs to one seller.
var ErrMixedSellers = errors.New("items belong to different sellers")

// Line is one requested cart line; its price comes from the catalog.
type Line struct {
	ProductID string
	VariantID string
	Quantity  int
}

type Request struct {
	CustomerID        string
	Lines             []Line
	VoucherCode       string
	ShippingMethod    string
	PaymentMethod     string
	ShippingAddressID string
	Notes             string
}

type Quote struct {
	SellerID string
	Items    []orders.LineItem
	Totals   pricing.Totals
}

type Result struct {
	Order       *orders.Order
	PaymentURL  string
	VoucherNote string
}

// Validation is the outcome of a dry run; Warnings never make it invalid.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// OrderCreator is the part of orders.Service checkout needs.
type OrderCreator interface {
	Create(ctx context.Context, in orders.NewOrder) (*orders.Order, error)
}

type Service struct {
	catalog       catalog.Store
	orders        OrderCreator
	vouchers      orders.VoucherResolver
	calc          *pricing.Calculator
	maxConcurrent int
	log           *slog.Logger
}

func NewService(cat catalog.Store, ord OrderCreator, vr orders.VoucherResolver, calc *pricing.Calculator, maxConcurrent int, log *slog.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		catalog:       cat,
		orders:        ord,
		vouchers:      vr,
		calc:          calc,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// PaymentURL is where the client completes an online payment.
func PaymentURL(orderID string) string {
	return fmt.Sprintf("/api/payment/orders/%s", orderID)
}

// Quote prices the request without creating anything.
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	items, lineErrs, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(lineErrs...); err != nil {
		return nil, fmt.Errorf("%w: %w", pricing.ErrInvalidCart, err)
	}
	seller, err := sellerOf(items)
	if err != nil {
		return nil, err
	}

	voucher, err := s.resolveVoucher(ctx, req.VoucherCode)
	if err != nil {
		return nil, err
	}
	totals, err := s.calc.ComputeTotals(pricingItems(items), voucher, req.ShippingMethod)
	if err != nil {
		return nil, err
	}
	if req.VoucherCode != "" && voucher == nil {
		totals.VoucherNote = fmt.Sprintf("voucher %s not found", vouchers.NormalizeCode(req.VoucherCode))
	}
	return &Quote{SellerID: seller, Items: lineItems(items), Totals: totals}, nil
}

// Checkout resolves catalog prices and places the order.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	items, lineErrs, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(lineErrs...); err != nil {
		return nil, fmt.Errorf("%w: %w", pricing.ErrInvalidCart, err)
	}
	seller, err := sellerOf(items)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.Create(ctx, orders.NewOrder{
		CustomerID:        req.CustomerID,
		SellerID:          seller,
		Items:             lineItems(items),
		VoucherCode:       vouchers.NormalizeCode(req.VoucherCode),
		ShippingMethod:    req.ShippingMethod,
		PaymentMethod:     req.PaymentMethod,
		ShippingAddressID: req.ShippingAddressID,
		Notes:             req.Notes,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Order: o}
	if o.PaymentMethod != PaymentCOD {
		res.PaymentURL = PaymentURL(o.ID)
	}
	if req.VoucherCode != "" && o.VoucherCode == "" {
		res.VoucherNote = fmt.Sprintf("voucher %s was not applied", vouchers.NormalizeCode(req.VoucherCode))
	}
	return res, nil
}

// Validate reports every problem with the request instead of stopping at the
// first. Only infrastructure failures are returned as errors.
func (s *Service) Validate(ctx context.Context, req Request) (*Validation, error) {
	out := &Validation{Errors: []string{}}

	items, lineErrs, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	for _, e := range lineErrs {
		if e != nil {
			out.Errors = append(out.Errors, e.Error())
		}
	}
	if len(req.Lines) == 0 {
		out.Errors = append(out.Errors, "cart is empty")
	}
	if _, err := sellerOf(items); err != nil && len(items) > 0 {
		out.Errors = append(out.Errors, ErrMixedSellers.Error())
	}

	if !s.shippingKnown(req.ShippingMethod) {
		out.Errors = append(out.Errors, fmt.Sprintf("unknown shipping method %q", req.ShippingMethod))
	}

	voucher, err := s.resolveVoucher(ctx, req.VoucherCode)
	switch {
	case errors.Is(err, vouchers.ErrNotFound):
		out.Errors = append(out.Errors, err.Error())
	case err != nil:
		return nil, err
	case req.VoucherCode != "" && voucher == nil:
		out.Warnings = append(out.Warnings, fmt.Sprintf("voucher %s not found", vouchers.NormalizeCode(req.VoucherCode)))
	case voucher != nil && len(items) > 0:
		subtotal := subtotalOf(items)
		if err := s.calc.Applicable(voucher, subtotal); err != nil {
			if s.calc.Policy() == pricing.PolicyStrict {
				out.Errors = append(out.Errors, err.Error())
			} else {
				out.Warnings = append(out.Warnings, err.Error())
			}
		}
	}

	out.Valid = len(out.Errors) == 0
	return out, nil
}

func (s *Service) resolveVoucher(ctx context.Context, code string) (*pricing.Voucher, error) {
	if code == "" || s.vouchers == nil {
		return nil, nil
	}
	return s.vouchers.Resolve(ctx, code)
}

func (s *Service) shippingKnown(id string) bool {
	for _, m := range s.calc.ShippingMethods() {
		if m.ID == id {
			return true
		}
	}
	return false
}

type resolvedLine struct {
	item     orders.LineItem
	sellerID string
}

// resolveLines looks every line up in the catalog concurrently. Unknown
// products and variants are reported per line in lineErrs; any other failure
// aborts the lookup and is returned as err.
func (s *Service) resolveLines(ctx context.Context, lines []Line) ([]resolvedLine, []error, error) {
	found := make([]*resolvedLine, len(lines))
	lineErrs := make([]error, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range lines {
		g.Go(func() error {
			ln := lines[idx]
			if ln.Quantity <= 0 {
				lineErrs[idx] = fmt.Errorf("items[%d]: quantity must be positive", idx)
				return nil
			}

			p, err := s.catalog.GetProduct(gctx, ln.ProductID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				lineErrs[idx] = fmt.Errorf("items[%d]: %w", idx, err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get product %s: %w", ln.ProductID, err)
			}

			price, name, err := p.PriceFor(ln.VariantID)
			if err != nil {
				lineErrs[idx] = fmt.Errorf("items[%d]: %w", idx, err)
				return nil
			}
			found[idx] = &resolvedLine{
				item: orders.LineItem{
					ProductID:   p.ID,
					VariantID:   ln.VariantID,
					ProductName: name,
					UnitPrice:   price,
					Quantity:    ln.Quantity,
				},
				sellerID: p.SellerID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]resolvedLine, 0, len(lines))
	for _, rl := range found {
		if rl != nil {
			out = append(out, *rl)
		}
	}
	s.log.DebugContext(ctx, "resolved cart lines",
		slog.Int("requested", len(lines)),
		slog.Int("resolved", len(out)),
	)
	return out, lineErrs, nil
}

func sellerOf(lines []resolvedLine) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: no items", pricing.ErrInvalidCart)
	}
	seller := lines[0].sellerID
	for _, rl := range lines[1:] {
		if rl.sellerID != seller {
			return "", fmt.Errorf("%w: %w", pricing.ErrInvalidCart, ErrMixedSellers)
		}
	}
	return seller, nil
}

func lineItems(lines []resolvedLine) []orders.LineItem {
	out := make([]orders.LineItem, 0, len(lines))
	for _, rl := range lines {
		it := rl.item
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		out = append(out, it)
	}
	return out
}

func pricingItems(lines []resolvedLine) []pricing.Item {
	out := make([]pricing.Item, 0, len(lines))
	for _, rl := range lines {
		out = append(out, pricing.Item{
			ProductID: rl.item.ProductID,
			VariantID: rl.item.VariantID,
			UnitPrice: rl.item.UnitPrice,
			Quantity:  rl.item.Quantity,
		})
	}
	return out
}

func subtotalOf(lines []resolvedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, rl := range lines {
		sum = sum.Add(rl.item.UnitPrice.Mul(decimal.NewFromInt(int64(rl.item.Quantity))))
	}
	return sum
}
