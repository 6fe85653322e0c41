package session

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a small in-memory table keyed by session_key.
// It understands the one condition expression DynamoStore issues.
type simpleMock struct {
	mu       sync.Mutex
	table    map[string]map[string]types.AttributeValue
	putCalls int
	failWith error
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func numberAttr(av types.AttributeValue) int64 {
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
	if m.failWith != nil {
		return nil, m.failWith
	}
	keyAttr, ok := params.Item["session_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	k := keyAttr.Value
	if params.ConditionExpression != nil && *params.ConditionExpression == condAbsent {
		if existing, ok := m.table[k]; ok {
			now := numberAttr(params.ExpressionAttributeValues[":now"])
			if numberAttr(existing["expires_at"]) > now {
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
	if m.failWith != nil {
		return nil, m.failWith
	}
	keyAttr, ok := params.Key["session_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	item, ok := m.table[keyAttr.Value]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not used by session store")
}

func (m *simpleMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	keyAttr, ok := params.Key["session_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing key")
	}
	delete(m.table, keyAttr.Value)
	return &dyn.DeleteItemOutput{}, nil
}
