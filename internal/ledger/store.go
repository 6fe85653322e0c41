// Package ledger keeps a durable record of every payment intent the
// checkout flow creates, independent of the short-lived session cache.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/aws"
)

// ErrStatusMismatch is returned by UpdateStatus when the record is not in the expected status.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store encapsulates operations on the payments table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new payments Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create inserts rec in CREATED status. A record that already exists for the
// same payment id is reported as a duplicate (apperror.DuplicateError).
func (s *Store) Create(ctx context.Context, rec PaymentRecord) error {
	now := s.nowFunc()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Status = StatusCreated
	if rec.ExpiresAt == 0 {
		rec.ExpiresAt = now.Add(RetentionWindow).Unix()
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal payment record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(payment_id)"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return apperror.Duplicate("paymentId", err)
		}
		return apperror.Datastore("put payment", err)
	}
	return nil
}

// Get fetches a payment by payment_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"payment_id": &types.AttributeValueMemberS{Value: paymentID},
		},
	})
	if err != nil {
		return nil, apperror.Datastore("get payment", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec PaymentRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", err)
	}
	return &rec, nil
}

// UpdateStatus conditionally moves a payment from expectedStatus to newStatus.
// Returns ErrStatusMismatch if the record is missing or in another status.
func (s *Store) UpdateStatus(ctx context.Context, paymentID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"payment_id": &types.AttributeValueMemberS{Value: paymentID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ConditionExpression:      awsString("#s = :expected"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return apperror.Datastore("update payment status", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
