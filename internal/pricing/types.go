// Package pricing computes checkout totals: subtotal, voucher discount,
// shipping fee, tax and the final amount due.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCart           = errors.New("invalid cart")
	ErrVoucherNotApplicable  = errors.New("voucher not applicable")
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrInvalidShippingQuery  = errors.New("invalid shipping query")
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

const (
	VoucherActive   = "ACTIVE"
	VoucherInactive = "INACTIVE"
)

// Voucher is the read-only discount rule applied at checkout.
// A zero MaxDiscount means uncapped; a zero UsageLimit means unlimited.
type Voucher struct {
	Code          string          `json:"code"`
	Description   string          `json:"description,omitempty"`
	Type          DiscountType    `json:"type"`
	Value         decimal.Decimal `json:"value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	MaxDiscount   decimal.Decimal `json:"max_discount"`
	UsageLimit    int             `json:"usage_limit"`
	UsedCount     int             `json:"used_count"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Status        string          `json:"status"`
}

// Item is a priced cart line.
type Item struct {
	ProductID string
	VariantID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the result of pricing a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingFee    decimal.Decimal
	Tax            decimal.Decimal
	FinalTotal     decimal.Decimal

	// VoucherCode is set only when the voucher produced a discount.
	VoucherCode string
	// VoucherNote explains why a supplied voucher was ignored under the lenient policy.
	VoucherNote string
}

// VoucherPolicy decides what happens when a supplied voucher cannot be applied.
type VoucherPolicy string

const (
	// PolicyLenient prices the cart with a zero discount.
	PolicyLenient VoucherPolicy = "lenient"
	// PolicyStrict fails the computation with ErrVoucherNotApplicable.
	PolicyStrict VoucherPolicy = "strict"
)

// ParsePolicy maps a config value to a policy, defaulting to lenient.
func ParsePolicy(s string) VoucherPolicy {
	if VoucherPolicy(s) == PolicyStrict {
		return PolicyStrict
	}
	return PolicyLenient
}
