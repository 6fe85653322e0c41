package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
)

type fakeIntents struct {
	got *stripe.PaymentIntentParams
	pi  *stripe.PaymentIntent
	err error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.got = params
	return f.pi, f.err
}

func TestCreateIntent_FixedCurrencyAndCountry(t *testing.T) {
	fake := &fakeIntents{pi: &stripe.PaymentIntent{
		ID:                 "pi_123",
		ClientSecret:       "pi_123_secret_abc",
		Amount:             50000,
		PaymentMethodTypes: []string{"card", "upi"},
	}}
	g := &StripeGateway{intents: fake}

	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		Name: "R", Line1: "X", PostalCode: "560001", City: "B", State: "KA", User: "u1",
		Amount:         50000,
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)

	assert.Equal(t, &Intent{
		PaymentID:      "pi_123",
		ClientSecret:   "pi_123_secret_abc",
		Amount:         50000,
		PaymentMethods: "card",
	}, intent)

	p := fake.got
	require.NotNil(t, p)
	assert.Equal(t, int64(50000), *p.Amount)
	assert.Equal(t, "inr", *p.Currency)
	assert.Equal(t, "IN", *p.Shipping.Address.Country)
	assert.Equal(t, "560001", *p.Shipping.Address.PostalCode)
	assert.Equal(t, "R", *p.Shipping.Name)
	assert.Equal(t, "PlantSeller", p.Metadata["company"])
	assert.Equal(t, "u1", p.Metadata["user"])
	assert.Equal(t, "idem-1", *p.IdempotencyKey)
	assert.NotNil(t, p.Context)
}

func TestCreateIntent_ProviderErrorPropagates(t *testing.T) {
	providerErr := errors.New("card_declined")
	g := &StripeGateway{intents: &fakeIntents{err: providerErr}}

	_, err := g.CreateIntent(context.Background(), IntentRequest{Amount: 100})
	assert.ErrorIs(t, err, providerErr)
}

func TestCreateIntent_RejectsZeroAmount(t *testing.T) {
	fake := &fakeIntents{}
	g := &StripeGateway{intents: fake}

	_, err := g.CreateIntent(context.Background(), IntentRequest{Amount: 0})
	assert.Error(t, err)
	assert.Nil(t, fake.got, "gateway must not be called")
}
