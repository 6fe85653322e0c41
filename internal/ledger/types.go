package ledger

import "time"

// Payment statuses
const (
	StatusCreated   = "CREATED"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// RetentionWindow is how long payment records live before DynamoDB TTL reaps them.
const RetentionWindow = 90 * 24 * time.Hour

// PaymentRecord represents the item stored in the payments DynamoDB table.
type PaymentRecord struct {
	PaymentID string    `dynamodbav:"payment_id"` // PK, Stripe PaymentIntent id
	UserID    string    `dynamodbav:"user_id"`
	Amount    int64     `dynamodbav:"amount"` // minor units
	Currency  string    `dynamodbav:"currency"`
	Status    string    `dynamodbav:"status"` // CREATED | SUCCEEDED | FAILED
	RequestID string    `dynamodbav:"request_id,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// PaymentEvent is the payload sent from API -> SQS -> worker when an intent is created.
type PaymentEvent struct {
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	RequestID string `json:"request_id,omitempty"`
}
