package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
)

type variantRecord struct {
	Name  string `dynamodbav:"name"`
	Price string `dynamodbav:"price"`
}

type productRecord struct {
	ProductID string                   `dynamodbav:"product_id"` // PK
	Name      string                   `dynamodbav:"name"`
	SellerID  string                   `dynamodbav:"seller_id"`
	Price     string                   `dynamodbav:"price"`
	Stock     int                      `dynamodbav:"stock"`
	Variants  map[string]variantRecord `dynamodbav:"variants,omitempty"`
}

// DynamoStore reads products from a table keyed by product_id.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) GetProduct(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}

	var rec productRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}

	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: parse price: %w", productID, err)
	}
	p := &Product{
		ID:       rec.ProductID,
		Name:     rec.Name,
		SellerID: rec.SellerID,
		Price:    price,
		Stock:    rec.Stock,
	}
	if len(rec.Variants) > 0 {
		p.Variants = make(map[string]Variant, len(rec.Variants))
		for id, v := range rec.Variants {
			vp, err := decimal.NewFromString(v.Price)
			if err != nil {
				return nil, fmt.Errorf("product %s variant %s: parse price: %w", productID, id, err)
			}
			p.Variants[id] = Variant{Name: v.Name, Price: vp}
		}
	}
	return p, nil
}

// Put writes a product, used by seeding.
func (s *DynamoStore) Put(ctx context.Context, p Product) error {
	rec := productRecord{
		ProductID: p.ID,
		Name:      p.Name,
		SellerID:  p.SellerID,
		Price:     p.Price.String(),
		Stock:     p.Stock,
	}
	if len(p.Variants) > 0 {
		rec.Variants = make(map[string]variantRecord, len(p.Variants))
		for id, v := range p.Variants {
			rec.Variants[id] = variantRecord{Name: v.Name, Price: v.Price.String()}
		}
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}
