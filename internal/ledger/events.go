package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imrishuroy/go-checkout-session/internal/aws"
)

// EventPublisher sends PaymentEvents to the ledger queue.
type EventPublisher struct {
	publisher *aws.Publisher
}

// NewEventPublisher wraps an SQS publisher bound to the ledger queue.
func NewEventPublisher(p *aws.Publisher) *EventPublisher {
	return &EventPublisher{publisher: p}
}

// PaymentCreated enqueues ev for the ledger worker.
func (e *EventPublisher) PaymentCreated(ctx context.Context, ev PaymentEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	return e.publisher.Send(ctx, string(body), map[string]string{
		"payment_id":     ev.PaymentID,
		"correlation_id": ev.RequestID,
	})
}
