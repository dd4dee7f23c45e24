package orders

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableMock is a small in-memory stand-in for the orders and counters tables.
// It understands only the expressions the stores in this package issue.
type tableMock struct {
	mu       sync.Mutex
	orders   map[string]map[string]types.AttributeValue
	counters map[string]int64
	pageSize int

	putCalls    int
	queryCalls  int
	updateCalls int
}

func newTableMock() *tableMock {
	return &tableMock{
		orders:   map[string]map[string]types.AttributeValue{},
		counters: map[string]int64{},
		pageSize: 2,
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *tableMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	k := stringAttr(params.Item, "order_id")
	if k == "" {
		return nil, errors.New("missing key")
	}
	existing, exists := m.orders[k]

	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_not_exists(order_id)":
			if exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "#v = :expected":
			want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
			got, _ := existing["version"].(*types.AttributeValueMemberN)
			if !exists || got == nil || got.Value != want {
				return nil, &types.ConditionalCheckFailedException{}
			}
		default:
			return nil, errors.New("unsupported condition " + *params.ConditionExpression)
		}
	}

	m.orders[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *tableMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := stringAttr(params.Key, "order_id")
	item, ok := m.orders[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// UpdateItem only implements the counter increment used by DynamoSequence.
func (m *tableMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	name := stringAttr(params.Key, "name")
	base, _ := strconv.ParseInt(params.ExpressionAttributeValues[":base"].(*types.AttributeValueMemberN).Value, 10, 64)
	inc, _ := strconv.ParseInt(params.ExpressionAttributeValues[":inc"].(*types.AttributeValueMemberN).Value, 10, 64)

	cur, ok := m.counters[name]
	if !ok {
		cur = base
	}
	cur += inc
	m.counters[name] = cur

	return &dyn.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"seq": &types.AttributeValueMemberN{Value: strconv.FormatInt(cur, 10)},
	}}, nil
}

// Query scans for items whose index attribute matches and pages through them
// in key order so pagination is exercised.
func (m *tableMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++

	attr := params.ExpressionAttributeNames["#k"]
	want := params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberS).Value

	var keys []string
	for k, item := range m.orders {
		if stringAttr(item, attr) == want {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		after := stringAttr(params.ExclusiveStartKey, "order_id")
		for start < len(keys) && keys[start] <= after {
			start++
		}
	}
	end := start + m.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &dyn.QueryOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, m.orders[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}
