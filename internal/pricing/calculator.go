package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat tax applied to the subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.10")

var hundred = decimal.NewFromInt(100)

// Calculator prices carts. It holds only read-only tables and is safe for
// concurrent use.
type Calculator struct {
	shipping *ShippingTable
	taxRate  decimal.Decimal
	policy   VoucherPolicy
	nowFunc  func() time.Time
}

func NewCalculator(shipping *ShippingTable, policy VoucherPolicy) *Calculator {
	return &Calculator{
		shipping: shipping,
		taxRate:  DefaultTaxRate,
		policy:   policy,
		nowFunc:  time.Now,
	}
}

func (c *Calculator) Policy() VoucherPolicy { return c.policy }

func (c *Calculator) ShippingMethods() []ShippingMethod { return c.shipping.Methods() }

func (c *Calculator) Shipping() *ShippingTable { return c.shipping }

// ComputeTotals prices items with an optional voucher and a shipping method id.
func (c *Calculator) ComputeTotals(items []Item, voucher *Voucher, shippingMethod string) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("%w: no items", ErrInvalidCart)
	}

	subtotal := decimal.Zero
	for i, it := range items {
		if it.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: item %d (%s) quantity must be positive, got %d", ErrInvalidCart, i, it.ProductID, it.Quantity)
		}
		if it.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d (%s) unit price cannot be negative", ErrInvalidCart, i, it.ProductID)
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	method, ok := c.shipping.Lookup(shippingMethod)
	if !ok {
		return Totals{}, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, shippingMethod)
	}

	totals := Totals{
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		ShippingFee:    method.BaseFee,
		Tax:            subtotal.Mul(c.taxRate).Round(2),
	}

	if voucher != nil {
		discount, err := c.discount(voucher, subtotal)
		switch {
		case err == nil:
			totals.DiscountAmount = discount
			totals.VoucherCode = voucher.Code
		case c.policy == PolicyStrict:
			return Totals{}, err
		default:
			totals.VoucherNote = err.Error()
		}
	}

	gross := totals.Subtotal.Add(totals.ShippingFee).Add(totals.Tax)
	// keeps finalTotal == subtotal - discount + shipping + tax while finalTotal >= 0
	if totals.DiscountAmount.GreaterThan(gross) {
		totals.DiscountAmount = gross
	}
	totals.FinalTotal = gross.Sub(totals.DiscountAmount)

	return totals, nil
}

// Applicable reports whether voucher can be used on a cart with the given subtotal.
func (c *Calculator) Applicable(v *Voucher, subtotal decimal.Decimal) error {
	now := c.nowFunc()
	switch {
	case v.Status != VoucherActive:
		return fmt.Errorf("%w: %s is not active", ErrVoucherNotApplicable, v.Code)
	case now.Before(v.StartDate):
		return fmt.Errorf("%w: %s is not valid yet", ErrVoucherNotApplicable, v.Code)
	case v.EndDate != nil && now.After(*v.EndDate):
		return fmt.Errorf("%w: %s has expired", ErrVoucherNotApplicable, v.Code)
	case v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit:
		return fmt.Errorf("%w: %s usage limit reached", ErrVoucherNotApplicable, v.Code)
	case subtotal.LessThan(v.MinOrderValue):
		return fmt.Errorf("%w: %s requires a minimum order of %s", ErrVoucherNotApplicable, v.Code, v.MinOrderValue)
	case !v.Value.IsPositive():
		return fmt.Errorf("%w: %s has no value", ErrVoucherNotApplicable, v.Code)
	}
	return nil
}

func (c *Calculator) discount(v *Voucher, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := c.Applicable(v, subtotal); err != nil {
		return decimal.Zero, err
	}

	var d decimal.Decimal
	switch v.Type {
	case DiscountPercentage:
		d = subtotal.Mul(v.Value).Div(hundred)
	case DiscountFixed:
		d = v.Value
	default:
		return decimal.Zero, fmt.Errorf("%w: %s has unknown type %q", ErrVoucherNotApplicable, v.Code, v.Type)
	}

	if v.MaxDiscount.IsPositive() && d.GreaterThan(v.MaxDiscount) {
		d = v.MaxDiscount
	}
	return d.Round(2), nil
}
