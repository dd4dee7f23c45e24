package catalog

import (
	"context"
	"errors"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tshirt() Product {
	return Product{
		ID:       "p-shirt",
		Name:     "T-Shirt",
		SellerID: "seller-1",
		Price:    decimal.NewFromInt(150000),
		Stock:    10,
		Variants: map[string]Variant{
			"xl": {Name: "XL", Price: decimal.NewFromInt(170000)},
		},
	}
}

func TestPriceFor(t *testing.T) {
	p := tshirt()

	price, name, err := p.PriceFor("")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150000).Equal(price))
	assert.Equal(t, "T-Shirt", name)

	price, name, err = p.PriceFor("xl")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(170000).Equal(price))
	assert.Equal(t, "T-Shirt (XL)", name)

	_, _, err = p.PriceFor("xxs")
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(tshirt())

	p, err := s.GetProduct(context.Background(), "p-shirt")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", p.SellerID)

	_, err = s.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

type mockProductTable struct {
	items map[string]map[string]types.AttributeValue
}

func (m *mockProductTable) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	k := params.Item["product_id"].(*types.AttributeValueMemberS).Value
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockProductTable) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	k := params.Key["product_id"].(*types.AttributeValueMemberS).Value
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

func (m *mockProductTable) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProductTable) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}

func TestDynamoStore_RoundTrip(t *testing.T) {
	mock := &mockProductTable{items: map[string]map[string]types.AttributeValue{}}
	s := NewDynamoStore(mock, "products")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, tshirt()))

	p, err := s.GetProduct(ctx, "p-shirt")
	require.NoError(t, err)
	assert.Equal(t, "T-Shirt", p.Name)
	assert.True(t, decimal.NewFromInt(150000).Equal(p.Price))
	require.Contains(t, p.Variants, "xl")
	assert.True(t, decimal.NewFromInt(170000).Equal(p.Variants["xl"].Price))

	_, err = s.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
