package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
)

const (
	CustomerIndex = "customer_id-index"
	SellerIndex   = "seller_id-index"
)

// orderRecord is the item shape stored in the orders table. Money is kept as
// decimal strings so no precision is lost in DynamoDB numbers.
type orderRecord struct {
	OrderID           string           `dynamodbav:"order_id"` // PK
	OrderNumber       string           `dynamodbav:"order_number"`
	CustomerID        string           `dynamodbav:"customer_id"`
	SellerID          string           `dynamodbav:"seller_id"`
	Status            string           `dynamodbav:"status"`
	PaymentStatus     string           `dynamodbav:"payment_status"`
	ShippingStatus    string           `dynamodbav:"shipping_status"`
	Subtotal          string           `dynamodbav:"subtotal"`
	DiscountAmount    string           `dynamodbav:"discount_amount"`
	ShippingFee       string           `dynamodbav:"shipping_fee"`
	Tax               string           `dynamodbav:"tax"`
	FinalTotal        string           `dynamodbav:"final_total"`
	VoucherCode       string           `dynamodbav:"voucher_code,omitempty"`
	ShippingMethod    string           `dynamodbav:"shipping_method"`
	PaymentMethod     string           `dynamodbav:"payment_method"`
	ShippingAddressID string           `dynamodbav:"shipping_address_id,omitempty"`
	Notes             string           `dynamodbav:"notes,omitempty"`
	Items             []lineItemRecord `dynamodbav:"items"`
	CreatedAt         time.Time        `dynamodbav:"created_at"`
	UpdatedAt         time.Time        `dynamodbav:"updated_at"`
	Version           int64            `dynamodbav:"version"`
	Seq               int64            `dynamodbav:"seq"`
}

type lineItemRecord struct {
	ProductID   string `dynamodbav:"product_id"`
	VariantID   string `dynamodbav:"variant_id,omitempty"`
	ProductName string `dynamodbav:"product_name,omitempty"`
	UnitPrice   string `dynamodbav:"unit_price"`
	Quantity    int    `dynamodbav:"quantity"`
	LineTotal   string `dynamodbav:"line_total"`
}

func toRecord(o Order) orderRecord {
	items := make([]lineItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, lineItemRecord{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice.String(),
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal.String(),
		})
	}
	return orderRecord{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		SellerID:          o.SellerID,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		ShippingStatus:    string(o.ShippingStatus),
		Subtotal:          o.Subtotal.String(),
		DiscountAmount:    o.DiscountAmount.String(),
		ShippingFee:       o.ShippingFee.String(),
		Tax:               o.Tax.String(),
		FinalTotal:        o.FinalTotal.String(),
		VoucherCode:       o.VoucherCode,
		ShippingMethod:    o.ShippingMethod,
		PaymentMethod:     o.PaymentMethod,
		ShippingAddressID: o.ShippingAddressID,
		Notes:             o.Notes,
		Items:             items,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Version:           o.Version,
		Seq:               o.Seq,
	}
}

func fromRecord(r orderRecord) (Order, error) {
	amounts := make([]decimal.Decimal, 5)
	for i, s := range []string{r.Subtotal, r.DiscountAmount, r.ShippingFee, r.Tax, r.FinalTotal} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Order{}, fmt.Errorf("order %s: parse amount %q: %w", r.OrderID, s, err)
		}
		amounts[i] = d
	}

	items := make([]LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return Order{}, fmt.Errorf("order %s: parse unit price: %w", r.OrderID, err)
		}
		lineTotal, err := decimal.NewFromString(it.LineTotal)
		if err != nil {
			return Order{}, fmt.Errorf("order %s: parse line total: %w", r.OrderID, err)
		}
		items = append(items, LineItem{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			UnitPrice:   price,
			Quantity:    it.Quantity,
			LineTotal:   lineTotal,
		})
	}

	return Order{
		ID:                r.OrderID,
		OrderNumber:       r.OrderNumber,
		CustomerID:        r.CustomerID,
		SellerID:          r.SellerID,
		Status:            Status(r.Status),
		PaymentStatus:     PaymentStatus(r.PaymentStatus),
		ShippingStatus:    ShippingStatus(r.ShippingStatus),
		Subtotal:          amounts[0],
		DiscountAmount:    amounts[1],
		ShippingFee:       amounts[2],
		Tax:               amounts[3],
		FinalTotal:        amounts[4],
		VoucherCode:       r.VoucherCode,
		ShippingMethod:    r.ShippingMethod,
		PaymentMethod:     r.PaymentMethod,
		ShippingAddressID: r.ShippingAddressID,
		Notes:             r.Notes,
		Items:             items,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
		Seq:               r.Seq,
	}, nil
}

// DynamoStore encapsulates operations on the orders table.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewDynamoStore creates a new orders store.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// Create puts a new order, failing with ErrDuplicateOrder if the id is taken.
func (s *DynamoStore) Create(ctx context.Context, o Order) error {
	item, err := attributevalue.MarshalMap(toRecord(o))
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *DynamoStore) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o, err := fromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Update replaces the order if its stored version still equals expectedVersion.
func (s *DynamoStore) Update(ctx context.Context, o Order, expectedVersion int64) error {
	item, err := attributevalue.MarshalMap(toRecord(o))
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      awsString("#v = :expected"),
		ExpressionAttributeNames: map[string]string{"#v": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrVersionConflict
		}
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

func (s *DynamoStore) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.queryIndex(ctx, CustomerIndex, "customer_id", customerID)
}

func (s *DynamoStore) ListBySeller(ctx context.Context, sellerID string) ([]Order, error) {
	return s.queryIndex(ctx, SellerIndex, "seller_id", sellerID)
}

func (s *DynamoStore) queryIndex(ctx context.Context, index, attr, value string) ([]Order, error) {
	input := &dyn.QueryInput{
		TableName:                &s.tableName,
		IndexName:                awsString(index),
		KeyConditionExpression:   awsString("#k = :v"),
		ExpressionAttributeNames: map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	}

	var out []Order
	for {
		page, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", index, err)
		}
		for _, item := range page.Items {
			var rec orderRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			o, err := fromRecord(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}

	SortNewestFirst(out)
	return out, nil
}

// DynamoSequence is an atomic counter item in a counters table.
type DynamoSequence struct {
	client    aws.DynamoDBAPI
	tableName string
	name      string
	start     int64
}

// NewDynamoSequence returns a counter named name whose first value is start.
func NewDynamoSequence(client aws.DynamoDBAPI, tableName, name string, start int64) *DynamoSequence {
	return &DynamoSequence{client: client, tableName: tableName, name: name, start: start}
}

func (s *DynamoSequence) Next(ctx context.Context) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: s.name},
		},
		UpdateExpression:         awsString("SET #seq = if_not_exists(#seq, :base) + :inc"),
		ExpressionAttributeNames: map[string]string{"#seq": "seq"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":base": &types.AttributeValueMemberN{Value: strconv.FormatInt(s.start-1, 10)},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", s.name, err)
	}

	n, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("sequence %s: missing seq attribute", s.name)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sequence %s: parse %q: %w", s.name, n.Value, err)
	}
	return v, nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
