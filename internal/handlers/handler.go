// Package handlers exposes the checkout flow over HTTP.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imrishuroy/go-checkout-session/internal/checkout"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
	"github.com/imrishuroy/go-checkout-session/internal/token"
)

// Checkout is the orchestrator surface the handlers call.
type Checkout interface {
	CreateOrderSession(ctx context.Context, userID string, req checkout.CreateSessionRequest) (string, error)
	AddShippingInfo(ctx context.Context, rc checkout.RequestContext, info checkout.ShippingInfo) error
	ShippingInfo(ctx context.Context, rc checkout.RequestContext) (*checkout.ShippingInfo, error)
	ConfirmOrder(ctx context.Context, rc checkout.RequestContext) (*checkout.Confirmation, error)
	ProcessPayment(ctx context.Context, rc checkout.RequestContext) (*checkout.PaymentResult, error)
	PublicKey(rc checkout.RequestContext) (string, error)
}

// TokenVerifier checks order-session tokens.
type TokenVerifier interface {
	Verify(tok string) (*token.Claims, error)
}

// WebhookVerifier authenticates payment provider callbacks.
type WebhookVerifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

// PaymentLedger records payment status transitions.
type PaymentLedger interface {
	Get(ctx context.Context, paymentID string) (*ledger.PaymentRecord, error)
	UpdateStatus(ctx context.Context, paymentID, expectedStatus, newStatus string) error
}

// HandlerConfig groups dependencies for the checkout routes.
// Webhooks and Ledger are optional; without them the webhook route is not registered.
type HandlerConfig struct {
	Checkout  Checkout
	Tokens    TokenVerifier
	Validator *validatorv10.Validate
	Webhooks  WebhookVerifier
	Ledger    PaymentLedger
	RateLimit rate.Limit
	RateBurst int
	Logger    *zap.Logger
}

// response is the success envelope shared by every checkout route.
type response struct {
	Status     bool        `json:"status"`
	Message    string      `json:"message"`
	OrderToken string      `json:"orderToken,omitempty"`
	Result     interface{} `json:"result,omitempty"`
}

// RegisterCheckoutRoutes registers the order-session and webhook routes.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &checkoutHandler{checkout: cfg.Checkout, validator: cfg.Validator}

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit > 0 {
		limit = RateLimit(NewRateLimiter(cfg.RateLimit, cfg.RateBurst, DefaultLimiterIdle))
	}

	g := r.Group("/order-session")
	g.POST("", RequireUser(), limit, h.createOrderSession)

	s := g.Group("", RequireOrderSession(cfg.Tokens), limit)
	s.GET("", h.getOrderSession)
	s.PUT("/shipping", h.addShippingInfo)
	s.GET("/shipping", h.getShippingInfo)
	s.POST("/confirm", h.confirmOrder)
	s.POST("/payment", h.processPayment)
	s.GET("/payment/public-key", h.publicKey)

	if cfg.Webhooks != nil && cfg.Ledger != nil {
		wh := &webhookHandler{verifier: cfg.Webhooks, ledger: cfg.Ledger, log: log}
		r.POST("/webhooks/stripe", wh.stripeEvent)
	}
}
