// Package payment adapts the Stripe API to the checkout flow: creating
// payment intents and verifying webhook deliveries.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
)

// Fixed for the storefront: it sells in one market only.
const (
	Currency    = "inr"
	Country     = "IN"
	Description = "Plant Selling website"
	Company     = "PlantSeller"
)

// IntentRequest describes the charge to create.
type IntentRequest struct {
	Name       string
	Line1      string
	PostalCode string
	City       string
	State      string
	User       string
	// Amount is in minor units (paise).
	Amount int64
	// IdempotencyKey is forwarded to Stripe when set.
	IdempotencyKey string
}

// Intent is the subset of a Stripe PaymentIntent the client needs to confirm the payment.
type Intent struct {
	PaymentID      string `json:"paymentId"`
	ClientSecret   string `json:"clientSecret"`
	Amount         int64  `json:"amount"`
	PaymentMethods string `json:"paymentMethods"`
}

// intentCreator is satisfied by *paymentintent.Client.
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway creates payment intents with its own API client; it never touches stripe.Key.
type StripeGateway struct {
	intents intentCreator
}

// NewStripeGateway returns a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{intents: sc.PaymentIntents}
}

// CreateIntent asks Stripe for a new payment intent. No retry is attempted.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("create payment intent: non-positive amount %d", req.Amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(Currency),
		Description: stripe.String(Description),
		Shipping: &stripe.ShippingDetailsParams{
			Name: stripe.String(req.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(req.Line1),
				PostalCode: stripe.String(req.PostalCode),
				City:       stripe.String(req.City),
				State:      stripe.String(req.State),
				Country:    stripe.String(Country),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("company", Company)
	params.AddMetadata("user", req.User)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if pi == nil {
		return nil, errors.New("create payment intent: empty response")
	}

	intent := &Intent{
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       req.Amount,
	}
	if len(pi.PaymentMethodTypes) > 0 {
		intent.PaymentMethods = pi.PaymentMethodTypes[0]
	}
	return intent, nil
}
