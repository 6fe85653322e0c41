package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Webhook event types the service reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// WebhookVerifier checks the Stripe-Signature header of webhook deliveries.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier returns a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify validates the payload signature and decodes the event.
// The account's API version may lag the library's, so that mismatch is tolerated.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return event, fmt.Errorf("verify webhook: %w", err)
	}
	return event, nil
}

// IntentFromEvent decodes the payment intent carried by a payment_intent.* event.
func IntentFromEvent(event stripe.Event) (*stripe.PaymentIntent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("unmarshal payment intent: %w", err)
	}
	return &pi, nil
}
