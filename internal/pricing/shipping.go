package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ShippingMethod is a flat-fee delivery option.
type ShippingMethod struct {
	ID            string
	Name          string
	Description   string
	BaseFee       decimal.Decimal
	EstimatedDays int
	DisplayOrder  int
}

// DefaultShippingMethods is the fee table used when none is configured.
func DefaultShippingMethods() []ShippingMethod {
	return []ShippingMethod{
		{
			ID:            "standard",
			Name:          "Standard delivery",
			Description:   "Delivered in 3-5 days",
			BaseFee:       decimal.NewFromInt(30000),
			EstimatedDays: 5,
			DisplayOrder:  1,
		},
		{
			ID:            "express",
			Name:          "Express delivery",
			Description:   "Delivered in 1-2 days",
			BaseFee:       decimal.NewFromInt(50000),
			EstimatedDays: 2,
			DisplayOrder:  2,
		},
		{
			ID:            "same-day",
			Name:          "Same-day delivery",
			Description:   "Delivered today, inner city only",
			BaseFee:       decimal.NewFromInt(80000),
			EstimatedDays: 1,
			DisplayOrder:  3,
		},
	}
}

var (
	// FeePerKg and FeePerKm are the surcharges of a shipping estimate.
	FeePerKg = decimal.NewFromInt(5000)
	FeePerKm = decimal.NewFromInt(1000)
)

// ShippingQuote is a fee estimate for a parcel. Checkout always charges the
// base fee; the surcharges are only used for estimates.
type ShippingQuote struct {
	Method      ShippingMethod
	BaseFee     decimal.Decimal
	WeightFee   decimal.Decimal
	DistanceFee decimal.Decimal
	Fee         decimal.Decimal
}

// ShippingTable looks up shipping methods by id.
type ShippingTable struct {
	methods map[string]ShippingMethod
}

func NewShippingTable(methods []ShippingMethod) *ShippingTable {
	t := &ShippingTable{methods: make(map[string]ShippingMethod, len(methods))}
	for _, m := range methods {
		t.methods[m.ID] = m
	}
	return t
}

func (t *ShippingTable) Lookup(id string) (ShippingMethod, bool) {
	m, ok := t.methods[id]
	return m, ok
}

// Methods returns all methods ordered by DisplayOrder, then id.
func (t *ShippingTable) Methods() []ShippingMethod {
	out := make([]ShippingMethod, 0, len(t.methods))
	for _, m := range t.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Calculate estimates the fee of sending a parcel of weightKg over
// distanceKm with the given method.
func (t *ShippingTable) Calculate(id string, weightKg, distanceKm decimal.Decimal) (ShippingQuote, error) {
	m, ok := t.Lookup(id)
	if !ok {
		return ShippingQuote{}, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, id)
	}
	if weightKg.IsNegative() || distanceKm.IsNegative() {
		return ShippingQuote{}, fmt.Errorf("%w: weight and distance cannot be negative", ErrInvalidShippingQuery)
	}

	q := ShippingQuote{
		Method:      m,
		BaseFee:     m.BaseFee,
		WeightFee:   weightKg.Mul(FeePerKg).Round(2),
		DistanceFee: distanceKm.Mul(FeePerKm).Round(2),
	}
	q.Fee = q.BaseFee.Add(q.WeightFee).Add(q.DistanceFee)
	return q, nil
}
