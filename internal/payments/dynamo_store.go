package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
)

const OrderIndex = "order_id-index"

type paymentRecord struct {
	PaymentID     string     `dynamodbav:"payment_id"`
	OrderID       string     `dynamodbav:"order_id"`
	CustomerID    string     `dynamodbav:"customer_id"`
	MethodID      string     `dynamodbav:"method_id"`
	Amount        string     `dynamodbav:"amount"`
	Status        string     `dynamodbav:"status"`
	TransactionID string     `dynamodbav:"transaction_id,omitempty"`
	CreatedAt     time.Time  `dynamodbav:"created_at"`
	CompletedAt   *time.Time `dynamodbav:"completed_at,omitempty"`
}

func toRecord(p Payment) paymentRecord {
	return paymentRecord{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		CustomerID:    p.CustomerID,
		MethodID:      p.MethodID,
		Amount:        p.Amount.String(),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

func (r paymentRecord) toPayment() (Payment, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return Payment{}, fmt.Errorf("payment %s amount %q: %w", r.PaymentID, r.Amount, err)
	}
	return Payment{
		ID:            r.PaymentID,
		OrderID:       r.OrderID,
		CustomerID:    r.CustomerID,
		MethodID:      r.MethodID,
		Amount:        amount,
		Status:        Status(r.Status),
		TransactionID: r.TransactionID,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}, nil
}

// DynamoStore keeps payments in a table keyed by payment_id with a GSI on order_id.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) Create(ctx context.Context, p Payment) error {
	item, err := attributevalue.MarshalMap(toRecord(p))
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(payment_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicate
		}
		return fmt.Errorf("put payment: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the payment does not exist.
func (s *DynamoStore) Get(ctx context.Context, paymentID string) (*Payment, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"payment_id": &types.AttributeValueMemberS{Value: paymentID},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec paymentRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", err)
	}
	p, err := rec.toPayment()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Settle conditionally moves the payment status from -> to.
func (s *DynamoStore) Settle(ctx context.Context, paymentID string, from, to Status, transactionID string, at time.Time) error {
	completed, err := attributevalue.Marshal(at)
	if err != nil {
		return fmt.Errorf("marshal completed_at: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"payment_id": &types.AttributeValueMemberS{Value: paymentID},
		},
		UpdateExpression:         awsString("SET #s = :to, transaction_id = :tx, completed_at = :at"),
		ConditionExpression:      awsString("#s = :from"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":tx":   &types.AttributeValueMemberS{Value: transactionID},
			":at":   completed,
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusConflict
		}
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (s *DynamoStore) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(OrderIndex),
		KeyConditionExpression: awsString("order_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: orderID},
		},
	}

	var out []Payment
	for {
		page, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", OrderIndex, err)
		}
		for _, item := range page.Items {
			var rec paymentRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal payment: %w", err)
			}
			p, err := rec.toPayment()
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	sortOldestFirst(out)
	return out, nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
