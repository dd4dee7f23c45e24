package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dynamoOrder(id, customer string, created time.Time, seq int64) Order {
	return Order{
		ID:             id,
		OrderNumber:    "ORD1000",
		CustomerID:     customer,
		SellerID:       "seller-1",
		Status:         StatusPending,
		PaymentStatus:  PaymentUnpaid,
		ShippingStatus: ShippingPending,
		Subtotal:       decimal.RequireFromString("140.23"),
		DiscountAmount: decimal.Zero,
		ShippingFee:    decimal.NewFromInt(30000),
		Tax:            decimal.RequireFromString("14.02"),
		FinalTotal:     decimal.RequireFromString("30154.25"),
		ShippingMethod: "standard",
		PaymentMethod:  "cod",
		Items: []LineItem{{
			ProductID:   "p1",
			ProductName: "Mug",
			UnitPrice:   decimal.RequireFromString("46.41"),
			Quantity:    3,
			LineTotal:   decimal.RequireFromString("139.23"),
		}},
		CreatedAt: created,
		UpdatedAt: created,
		Version:   1,
		Seq:       seq,
	}
}

func TestDynamoStore_CreateAndGet(t *testing.T) {
	mock := newTableMock()
	store := NewDynamoStore(mock, "orders")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	in := dynamoOrder("o1", "c1", now, 1000)
	if err := store.Create(ctx, in); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Create(ctx, in); !errors.Is(err, ErrDuplicateOrder) {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}

	got, err := store.Get(ctx, "o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected order, got nil")
	}
	if !got.Subtotal.Equal(in.Subtotal) || !got.FinalTotal.Equal(in.FinalTotal) {
		t.Fatalf("amounts not preserved: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 || !got.Items[0].UnitPrice.Equal(in.Items[0].UnitPrice) {
		t.Fatalf("items not preserved: %+v", got.Items)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at not preserved: %v", got.CreatedAt)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing order, got (%v, %v)", missing, err)
	}
}

func TestDynamoStore_UpdateChecksVersion(t *testing.T) {
	mock := newTableMock()
	store := NewDynamoStore(mock, "orders")
	ctx := context.Background()

	o := dynamoOrder("o1", "c1", time.Now().UTC(), 1000)
	if err := store.Create(ctx, o); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	o.Status = StatusCancelled
	o.Version = 2
	if err := store.Update(ctx, o, 1); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stale := o
	stale.Status = StatusConfirmed
	stale.Version = 2
	if err := store.Update(ctx, stale, 1); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := store.Get(ctx, "o1")
	if got.Status != StatusCancelled || got.Version != 2 {
		t.Fatalf("stale write leaked: status=%s version=%d", got.Status, got.Version)
	}
}

func TestDynamoStore_ListPagesAndSorts(t *testing.T) {
	mock := newTableMock()
	store := NewDynamoStore(mock, "orders")
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	orders := []Order{
		dynamoOrder("a", "c1", base, 1000),
		dynamoOrder("b", "c1", base.Add(2*time.Hour), 1001),
		dynamoOrder("c", "c1", base.Add(2*time.Hour), 1002),
		dynamoOrder("d", "c1", base.Add(time.Hour), 1003),
		dynamoOrder("e", "c2", base.Add(3*time.Hour), 1004),
	}
	for _, o := range orders {
		if err := store.Create(ctx, o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}

	list, err := store.ListByCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"b", "c", "d", "a"}
	if len(list) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
	if mock.queryCalls < 2 {
		t.Fatalf("expected paginated queries, got %d calls", mock.queryCalls)
	}

	bySeller, err := store.ListBySeller(ctx, "seller-1")
	if err != nil {
		t.Fatalf("list by seller failed: %v", err)
	}
	if len(bySeller) != 5 {
		t.Fatalf("expected 5 seller orders, got %d", len(bySeller))
	}
}

func TestDynamoSequence_Next(t *testing.T) {
	mock := newTableMock()
	seq := NewDynamoSequence(mock, "counters", "order_number", FirstOrderNumber)
	ctx := context.Background()

	for want := int64(1000); want < 1003; want++ {
		got, err := seq.Next(ctx)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestService_WithDynamoStore(t *testing.T) {
	mock := newTableMock()
	svc, _ := newTestService(t)
	svc.repo = NewDynamoStore(mock, "orders")
	svc.seq = NewDynamoSequence(mock, "counters", "order_number", FirstOrderNumber)
	ctx := context.Background()

	o, err := svc.Create(ctx, sampleOrder("c1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if o.OrderNumber != "ORD1000" {
		t.Fatalf("expected ORD1000, got %s", o.OrderNumber)
	}

	cancelled, err := svc.Cancel(ctx, o.ID, "c1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if _, err := svc.Cancel(ctx, o.ID, "c1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
