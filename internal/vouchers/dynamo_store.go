package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

type voucherRecord struct {
	Code          string     `dynamodbav:"code"` // PK
	Description   string     `dynamodbav:"description,omitempty"`
	Type          string     `dynamodbav:"type"`
	Value         string     `dynamodbav:"value"`
	MinOrderValue string     `dynamodbav:"min_order_value,omitempty"`
	MaxDiscount   string     `dynamodbav:"max_discount,omitempty"`
	UsageLimit    int        `dynamodbav:"usage_limit"`
	UsedCount     int        `dynamodbav:"used_count"`
	StartDate     time.Time  `dynamodbav:"start_date"`
	EndDate       *time.Time `dynamodbav:"end_date,omitempty"`
	Status        string     `dynamodbav:"status"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (r voucherRecord) toVoucher() (*pricing.Voucher, error) {
	value, err := parseAmount(r.Value)
	if err != nil {
		return nil, fmt.Errorf("voucher %s: parse value: %w", r.Code, err)
	}
	minOrder, err := parseAmount(r.MinOrderValue)
	if err != nil {
		return nil, fmt.Errorf("voucher %s: parse min order value: %w", r.Code, err)
	}
	maxDiscount, err := parseAmount(r.MaxDiscount)
	if err != nil {
		return nil, fmt.Errorf("voucher %s: parse max discount: %w", r.Code, err)
	}
	return &pricing.Voucher{
		Code:          r.Code,
		Description:   r.Description,
		Type:          pricing.DiscountType(r.Type),
		Value:         value,
		MinOrderValue: minOrder,
		MaxDiscount:   maxDiscount,
		UsageLimit:    r.UsageLimit,
		UsedCount:     r.UsedCount,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Status:        r.Status,
	}, nil
}

func toRecord(v pricing.Voucher) voucherRecord {
	return voucherRecord{
		Code:          NormalizeCode(v.Code),
		Description:   v.Description,
		Type:          string(v.Type),
		Value:         v.Value.String(),
		MinOrderValue: v.MinOrderValue.String(),
		MaxDiscount:   v.MaxDiscount.String(),
		UsageLimit:    v.UsageLimit,
		UsedCount:     v.UsedCount,
		StartDate:     v.StartDate,
		EndDate:       v.EndDate,
		Status:        v.Status,
	}
}

// DynamoStore reads vouchers from a table keyed by code.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) GetByCode(ctx context.Context, code string) (*pricing.Voucher, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"code": &types.AttributeValueMemberS{Value: NormalizeCode(code)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var rec voucherRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal voucher: %w", err)
	}
	return rec.toVoucher()
}

// Put writes a voucher, used by seeding.
func (s *DynamoStore) Put(ctx context.Context, v pricing.Voucher) error {
	item, err := attributevalue.MarshalMap(toRecord(v))
	if err != nil {
		return fmt.Errorf("marshal voucher: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put voucher: %w", err)
	}
	return nil
}
