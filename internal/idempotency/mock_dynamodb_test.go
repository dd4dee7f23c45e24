package idempotency

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for PutItem/GetItem/UpdateItem used in unit tests.
// It evaluates only the condition expressions Store issues.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	attr, ok := item["idempotency_key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key")
	}
	return attr.Value, nil
}

func numberOf(av types.AttributeValue) int64 {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	k, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil {
		if !strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists(idempotency_key)") {
			return nil, errors.New("unsupported condition")
		}
		if existing, ok := m.table[k]; ok {
			now := numberOf(params.ExpressionAttributeValues[":now"])
			if numberOf(existing["expires_at"]) > now {
				// simulate conditional failure
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	vals := params.ExpressionAttributeValues
	// condition is always "#s = :<placeholder>"
	if params.ConditionExpression != nil {
		placeholder := strings.TrimSpace(strings.TrimPrefix(*params.ConditionExpression, "#s ="))
		want := vals[placeholder].(*types.AttributeValueMemberS).Value
		if st, _ := item["status"].(*types.AttributeValueMemberS); st == nil || st.Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	updated := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		updated[name] = v
	}
	expr := *params.UpdateExpression
	switch {
	case strings.Contains(expr, ":done"):
		updated["status"] = vals[":done"]
		updated["order_id"] = vals[":oid"]
		updated["response_body"] = vals[":rb"]
		updated["response_status"] = vals[":rs"]
	case strings.Contains(expr, ":failed"):
		updated["status"] = vals[":failed"]
		updated["note"] = vals[":n"]
	case strings.Contains(expr, "REMOVE note"):
		updated["status"] = vals[":inprogress"]
		delete(updated, "note")
	default:
		return nil, errors.New("unsupported update")
	}
	updated["updated_at"] = vals[":ua"]
	m.table[k] = updated
	return &dyn.UpdateItemOutput{}, nil
}

func (m *simpleMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}
