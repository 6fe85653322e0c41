package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/aws"
)

// condAbsent lets a write through when no item exists or the existing one has
// expired but not yet been reaped by DynamoDB TTL.
const condAbsent = "attribute_not_exists(session_key) OR expires_at <= :now"

// item is the shape persisted in the sessions table. expires_at is the table's TTL attribute.
type item struct {
	SessionKey string    `dynamodbav:"session_key"` // PK
	Value      string    `dynamodbav:"value"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
	ExpiresAt  int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// DynamoStore keeps session fields as items in a DynamoDB table.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoStore returns a Store backed by tableName.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) newItem(key Key, field Field, value interface{}, ttl time.Duration) (map[string]types.AttributeValue, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", field, err)
	}
	now := s.nowFunc()
	av, err := attributevalue.MarshalMap(item{
		SessionKey: key.storageKey(field),
		Value:      string(data),
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return av, nil
}

func (s *DynamoStore) Write(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) error {
	av, err := s.newItem(key, field, value, ttl)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	})
	if err != nil {
		return apperror.Datastore("put item", err)
	}
	return nil
}

func (s *DynamoStore) WriteIfAbsent(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) (bool, error) {
	av, err := s.newItem(key, field, value, ttl)
	if err != nil {
		return false, err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: awsString(condAbsent),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(s.nowFunc().Unix(), 10)},
		},
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, apperror.Datastore("put item", err)
	}
	return true, nil
}

func (s *DynamoStore) Read(ctx context.Context, key Key, field Field, out interface{}) error {
	out2, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_key": &types.AttributeValueMemberS{Value: key.storageKey(field)},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return apperror.Datastore("get item", err)
	}
	if len(out2.Item) == 0 {
		return ErrNotFound
	}
	var it item
	if err := attributevalue.UnmarshalMap(out2.Item, &it); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	if it.ExpiresAt <= s.nowFunc().Unix() {
		return ErrNotFound
	}
	if err := json.Unmarshal([]byte(it.Value), out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return nil
}

func (s *DynamoStore) Remove(ctx context.Context, key Key, field Field) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_key": &types.AttributeValueMemberS{Value: key.storageKey(field)},
		},
	})
	if err != nil {
		return apperror.Datastore("delete item", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
