package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80/webhook"
)

const testEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "api_version": "2020-08-27",
  "data": {"object": {"id": "pi_123", "object": "payment_intent", "amount": 50000, "currency": "inr", "status": "succeeded"}}
}`

func TestWebhookVerifier_ValidSignature(t *testing.T) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(testEvent),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := NewWebhookVerifier("whsec_test").Verify(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, EventIntentSucceeded, string(event.Type))

	pi, err := IntentFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, int64(50000), pi.Amount)
}

func TestWebhookVerifier_WrongSecret(t *testing.T) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(testEvent),
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})

	_, err := NewWebhookVerifier("whsec_test").Verify(signed.Payload, signed.Header)
	assert.Error(t, err)
}
