package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-shop-orderflow/internal/catalog"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/vouchers"
)

type fixture struct {
	svc    *Service
	orders *orders.Service
	store  *orders.MemoryStore
}

func newFixture(t *testing.T, policy pricing.VoucherPolicy, cat catalog.Store) fixture {
	t.Helper()
	if cat == nil {
		cat = catalog.NewMemoryStore(
			catalog.Product{ID: "kettle", Name: "Kettle", SellerID: "s1", Price: decimal.NewFromInt(100000), Stock: 5},
			catalog.Product{
				ID: "shirt", Name: "Shirt", SellerID: "s1", Price: decimal.NewFromInt(150000),
				Variants: map[string]catalog.Variant{"xl": {Name: "XL", Price: decimal.NewFromInt(170000)}},
			},
			catalog.Product{ID: "lamp", Name: "Lamp", SellerID: "s2", Price: decimal.NewFromInt(90000)},
		)
	}
	vs := vouchers.NewMemoryStore(
		pricing.Voucher{
			Code: "SALE10", Type: pricing.DiscountPercentage, Value: decimal.NewFromInt(10),
			MaxDiscount: decimal.NewFromInt(50000), Status: pricing.VoucherActive,
			StartDate: time.Now().Add(-time.Hour),
		},
		pricing.Voucher{
			Code: "BIGSPEND", Type: pricing.DiscountFixed, Value: decimal.NewFromInt(10000),
			MinOrderValue: decimal.NewFromInt(1000000), Status: pricing.VoucherActive,
			StartDate: time.Now().Add(-time.Hour),
		},
	)
	resolver := vouchers.NewResolver(vs, policy, nil)
	calc := pricing.NewCalculator(pricing.NewShippingTable(pricing.DefaultShippingMethods()), policy)
	store := orders.NewMemoryStore()
	osvc := orders.NewService(store, orders.NewMemorySequence(orders.FirstOrderNumber), calc, resolver)
	return fixture{
		svc:    NewService(cat, osvc, resolver, calc, 4, nil),
		orders: osvc,
		store:  store,
	}
}

func request(lines ...Line) Request {
	return Request{
		CustomerID:        "c1",
		Lines:             lines,
		ShippingMethod:    "standard",
		PaymentMethod:     "cod",
		ShippingAddressID: "addr-1",
	}
}

func TestQuote_UsesCatalogPrices(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, nil)

	q, err := f.svc.Quote(context.Background(), request(Line{ProductID: "kettle", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, "s1", q.SellerID)
	assert.True(t, decimal.NewFromInt(200000).Equal(q.Totals.Subtotal))
	assert.True(t, decimal.NewFromInt(250000).Equal(q.Totals.FinalTotal))
	require.Len(t, q.Items, 1)
	assert.True(t, decimal.NewFromInt(200000).Equal(q.Items[0].LineTotal))

	list, _ := f.store.ListByCustomer(context.Background(), "c1")
	assert.Empty(t, list, "quote must not create orders")
}

func TestQuote_VariantPriceAndVoucher(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, nil)
	req := request(Line{ProductID: "shirt", VariantID: "xl", Quantity: 1})
	req.VoucherCode = "sale10"

	q, err := f.svc.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Shirt (XL)", q.Items[0].ProductName)
	assert.True(t, decimal.NewFromInt(170000).Equal(q.Totals.Subtotal))
	assert.True(t, decimal.NewFromInt(17000).Equal(q.Totals.DiscountAmount))
	assert.Equal(t, "SALE10", q.Totals.VoucherCode)
}

func TestCheckout_PlacesOrder(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, nil)
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, request(Line{ProductID: "kettle", Quantity: 2}))
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, "ORD1000", o.OrderNumber)
	assert.Equal(t, "s1", o.SellerID)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(250000).Equal(o.FinalTotal))
	assert.Empty(t, res.PaymentURL, "cash on delivery has no payment page")

	stored, err := f.orders.Get(ctx, o.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)
}

func TestCheckout_OnlinePaymentGetsURL(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, nil)
	req := request(Line{ProductID: "kettle", Quantity: 1})
	req.PaymentMethod = "vnpay"

	res, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "/api/payment/orders/"+res.Order.ID, res.PaymentURL)
}

func TestCheckout_InvalidCartLeavesNoOrder(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		lines []Line
	}{
		{"unknown product", []Line{{ProductID: "ghost", Quantity: 1}}},
		{"unknown variant", []Line{{ProductID: "shirt", VariantID: "xxs", Quantity: 1}}},
		{"zero quantity", []Line{{ProductID: "kettle", Quantity: 0}}},
		{"mixed sellers", []Line{{ProductID: "kettle", Quantity: 1}, {ProductID: "lamp", Quantity: 1}}},
		{"empty", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Checkout(ctx, request(tc.lines...))
			assert.ErrorIs(t, err, pricing.ErrInvalidCart)
		})
	}

	list, _ := f.store.ListByCustomer(ctx, "c1")
	assert.Empty(t, list)
}

func TestCheckout_UnknownVoucherByPolicy(t *testing.T) {
	ctx := context.Background()

	lenient := newFixture(t, pricing.PolicyLenient, nil)
	req := request(Line{ProductID: "kettle", Quantity: 2})
	req.VoucherCode = "ghost"
	res, err := lenient.svc.Checkout(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "voucher GHOST was not applied", res.VoucherNote)
	assert.True(t, decimal.NewFromInt(250000).Equal(res.Order.FinalTotal))

	strict := newFixture(t, pricing.PolicyStrict, nil)
	_, err = strict.svc.Checkout(ctx, req)
	assert.ErrorIs(t, err, vouchers.ErrNotFound)

	req.VoucherCode = "BIGSPEND"
	_, err = strict.svc.Checkout(ctx, req)
	assert.ErrorIs(t, err, pricing.ErrVoucherNotApplicable)
}

type brokenCatalog struct{}

func (brokenCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	return nil, errors.New("catalog timeout")
}

func TestCheckout_CatalogFailureIsNotInvalidCart(t *testing.T) {
	f := newFixture(t, pricing.PolicyLenient, brokenCatalog{})

	_, err := f.svc.Checkout(context.Background(), request(Line{ProductID: "kettle", Quantity: 1}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, pricing.ErrInvalidCart)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid request", func(t *testing.T) {
		f := newFixture(t, pricing.PolicyLenient, nil)
		v, err := f.svc.Validate(ctx, request(Line{ProductID: "kettle", Quantity: 1}))
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Errors)
	})

	t.Run("collects every problem", func(t *testing.T) {
		f := newFixture(t, pricing.PolicyLenient, nil)
		req := request(
			Line{ProductID: "ghost", Quantity: 1},
			Line{ProductID: "kettle", Quantity: 1},
			Line{ProductID: "lamp", Quantity: 1},
		)
		req.ShippingMethod = "drone"
		v, err := f.svc.Validate(ctx, req)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Len(t, v.Errors, 3)
	})

	t.Run("lenient voucher problems are warnings", func(t *testing.T) {
		f := newFixture(t, pricing.PolicyLenient, nil)
		req := request(Line{ProductID: "kettle", Quantity: 1})
		req.VoucherCode = "BIGSPEND"
		v, err := f.svc.Validate(ctx, req)
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.Len(t, v.Warnings, 1)
	})

	t.Run("strict voucher problems are errors", func(t *testing.T) {
		f := newFixture(t, pricing.PolicyStrict, nil)
		req := request(Line{ProductID: "kettle", Quantity: 1})
		req.VoucherCode = "BIGSPEND"
		v, err := f.svc.Validate(ctx, req)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Len(t, v.Errors, 1)
	})
}
