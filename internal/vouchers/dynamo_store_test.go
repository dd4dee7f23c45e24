package vouchers

import (
	"context"
	"errors"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

type mockVoucherTable struct {
	items map[string]map[string]types.AttributeValue
}

func (m *mockVoucherTable) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	k, ok := params.Item["code"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	m.items[k.Value] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockVoucherTable) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	k := params.Key["code"].(*types.AttributeValueMemberS).Value
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

func (m *mockVoucherTable) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockVoucherTable) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}

func TestDynamoStore_PutAndGet(t *testing.T) {
	mock := &mockVoucherTable{items: map[string]map[string]types.AttributeValue{}}
	store := NewDynamoStore(mock, "vouchers")
	ctx := context.Background()

	if err := store.Put(ctx, sampleVoucher()); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	v, err := store.GetByCode(ctx, "sale10")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v.Code != "SALE10" || !v.Value.Equal(decimal.NewFromInt(10)) || !v.MaxDiscount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected voucher: %+v", v)
	}
	if v.EndDate != nil {
		t.Fatalf("expected open-ended voucher, got end %v", v.EndDate)
	}

	if _, err := store.GetByCode(ctx, "GHOST"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
