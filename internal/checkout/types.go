package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/imrishuroy/go-checkout-session/internal/payment"
	"github.com/imrishuroy/go-checkout-session/internal/session"
)

// RequestContext is produced by the order-token middleware and identifies the
// session a request operates on.
type RequestContext struct {
	UserID    string
	Token     string
	RequestID string
}

func (rc RequestContext) key() session.Key {
	return session.Key{UserID: rc.UserID, Token: rc.Token}
}

// ShippingInfo is the delivery address captured during checkout.
type ShippingInfo struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	PinCode string `json:"pinCode" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	User    string `json:"user,omitempty"`
}

// MaxTotalPrice is the largest order total accepted, in rupees. It keeps the
// paise amount within what the payment provider accepts.
const MaxTotalPrice = 999999

// Pricing carries the client-computed totals. Only totalPrice is interpreted;
// every other key is kept verbatim.
type Pricing struct {
	TotalPrice float64 `json:"totalPrice" validate:"gt=0,lte=999999"`
	extra      map[string]json.RawMessage
}

func (p Pricing) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.extra)+1)
	for k, v := range p.extra {
		out[k] = v
	}
	total, err := json.Marshal(p.TotalPrice)
	if err != nil {
		return nil, err
	}
	out["totalPrice"] = total
	return json.Marshal(out)
}

func (p *Pricing) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if total, ok := raw["totalPrice"]; ok {
		if err := json.Unmarshal(total, &p.TotalPrice); err != nil {
			return fmt.Errorf("totalPrice: %w", err)
		}
		delete(raw, "totalPrice")
	}
	p.extra = raw
	return nil
}

// Extra returns the raw value of a pricing key other than totalPrice.
func (p Pricing) Extra(key string) (json.RawMessage, bool) {
	v, ok := p.extra[key]
	return v, ok
}

// MinorUnits converts a rupee amount to paise.
func MinorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}

// CreateSessionRequest is the payload for POST /order-session.
type CreateSessionRequest struct {
	CartOrProducts json.RawMessage `json:"cartOrProducts"`
	ShippingInfo   ShippingInfo    `json:"shippingInfo"`
	Pricing        Pricing         `json:"pricing"`
}

// HasCart reports whether the opaque cart blob carries a value.
func (r CreateSessionRequest) HasCart() bool {
	trimmed := bytes.TrimSpace(r.CartOrProducts)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Confirmation is returned by ConfirmOrder.
type Confirmation struct {
	Address        ShippingInfo    `json:"address"`
	CartOrProducts json.RawMessage `json:"cartOrProducts"`
	Pricing        Pricing         `json:"pricing"`
}

// PaymentResult is returned by ProcessPayment. Reused is true when the
// session already held a payment intent and the gateway was not called.
type PaymentResult struct {
	Intent payment.Intent
	Reused bool
}
