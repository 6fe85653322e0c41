// Package checkout sequences the order-session flow: opening a session,
// capturing shipping, confirming the order and creating the payment intent.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
	"github.com/imrishuroy/go-checkout-session/internal/payment"
	"github.com/imrishuroy/go-checkout-session/internal/session"
	"github.com/imrishuroy/go-checkout-session/internal/token"
)

// Metric names.
const (
	MetricSessionCreated = "OrderSessionCreated"
	MetricSessionExpired = "SessionExpired"
	MetricPaymentCreated = "PaymentIntentCreated"
	MetricPaymentReused  = "PaymentIntentReused"
	MetricGatewayFailed  = "PaymentGatewayFailed"
)

const (
	defaultClaimTTL = time.Minute

	msgSessionExpired     = "Order Session is expired! Please try again."
	msgInvalidSession     = "Invalid Order Session."
	msgAuthenticationFail = "Authentication Failed"
)

// TokenIssuer mints order-session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, *token.Claims, error)
}

// Gateway creates payment intents with the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
}

// Events announces created payment intents to the ledger.
type Events interface {
	PaymentCreated(ctx context.Context, ev ledger.PaymentEvent) error
}

// Metrics counts checkout events.
type Metrics interface {
	Incr(ctx context.Context, name string)
}

// CleanupPolicy controls when a cached payment intent is discarded. Both steps
// are on by default, which means a confirmed order always gets a fresh intent.
type CleanupPolicy struct {
	OnCreate  bool
	OnConfirm bool
}

// DefaultCleanupPolicy removes the payment record on session creation and on confirmation.
func DefaultCleanupPolicy() CleanupPolicy {
	return CleanupPolicy{OnCreate: true, OnConfirm: true}
}

// Config groups the Service dependencies. Events and Metrics are optional.
type Config struct {
	Store          session.Store
	Tokens         TokenIssuer
	Gateway        Gateway
	Events         Events
	Metrics        Metrics
	Logger         *zap.Logger
	SessionTTL     time.Duration
	ClaimTTL       time.Duration
	Cleanup        CleanupPolicy
	PublishableKey string
}

// Service is the checkout orchestrator. It holds no per-request state.
type Service struct {
	store          session.Store
	tokens         TokenIssuer
	gateway        Gateway
	events         Events
	metrics        Metrics
	log            *zap.Logger
	ttl            time.Duration
	claimTTL       time.Duration
	cleanup        CleanupPolicy
	publishableKey string
	nowFunc        func() time.Time
}

type nopMetrics struct{}

func (nopMetrics) Incr(context.Context, string) {}

// NewService builds a Service from cfg.
func NewService(cfg Config) *Service {
	s := &Service{
		store:          cfg.Store,
		tokens:         cfg.Tokens,
		gateway:        cfg.Gateway,
		events:         cfg.Events,
		metrics:        cfg.Metrics,
		log:            cfg.Logger,
		ttl:            cfg.SessionTTL,
		claimTTL:       cfg.ClaimTTL,
		cleanup:        cfg.Cleanup,
		publishableKey: cfg.PublishableKey,
		nowFunc:        time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = session.DefaultTTL
	}
	if s.claimTTL <= 0 {
		s.claimTTL = defaultClaimTTL
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// paymentClaim is written with set-if-absent before the gateway is called.
type paymentClaim struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	ClaimedAt time.Time `json:"claimedAt"`
}

// CreateOrderSession mints a token for userID and stores the client-supplied
// cart, shipping and pricing under it.
func (s *Service) CreateOrderSession(ctx context.Context, userID string, req CreateSessionRequest) (string, error) {
	tok, _, err := s.tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue order token: %w", err)
	}
	key := session.Key{UserID: userID, Token: tok}

	if err := s.store.Write(ctx, key, session.FieldCartOrProducts, req.CartOrProducts, s.ttl); err != nil {
		return "", err
	}
	if err := s.store.Write(ctx, key, session.FieldShipping, req.ShippingInfo, s.ttl); err != nil {
		return "", err
	}
	if err := s.store.Write(ctx, key, session.FieldPricing, req.Pricing, s.ttl); err != nil {
		return "", err
	}
	if s.cleanup.OnCreate {
		if err := s.clearPayment(ctx, key); err != nil {
			return "", err
		}
	}

	s.metrics.Incr(ctx, MetricSessionCreated)
	s.log.Info("order session created", zap.String("user_id", userID))
	return tok, nil
}

// AddShippingInfo replaces the session's shipping address.
func (s *Service) AddShippingInfo(ctx context.Context, rc RequestContext, info ShippingInfo) error {
	return s.store.Write(ctx, rc.key(), session.FieldShipping, info, s.ttl)
}

// ShippingInfo returns the session's shipping address.
func (s *Service) ShippingInfo(ctx context.Context, rc RequestContext) (*ShippingInfo, error) {
	var info ShippingInfo
	found, err := s.read(ctx, rc.key(), session.FieldShipping, &info)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, s.expired(ctx, msgSessionExpired)
	}
	return &info, nil
}

// ConfirmOrder returns everything the client needs to render the order summary.
func (s *Service) ConfirmOrder(ctx context.Context, rc RequestContext) (*Confirmation, error) {
	key := rc.key()
	var conf Confirmation

	hasCart, err := s.read(ctx, key, session.FieldCartOrProducts, &conf.CartOrProducts)
	if err != nil {
		return nil, err
	}
	hasShipping, err := s.read(ctx, key, session.FieldShipping, &conf.Address)
	if err != nil {
		return nil, err
	}
	hasPricing, err := s.read(ctx, key, session.FieldPricing, &conf.Pricing)
	if err != nil {
		return nil, err
	}

	// runs before the presence check: an expired session still loses its payment
	if s.cleanup.OnConfirm {
		if err := s.clearPayment(ctx, key); err != nil {
			return nil, err
		}
	}

	if !hasCart || !hasShipping || !hasPricing {
		return nil, s.expired(ctx, msgSessionExpired)
	}
	return &conf, nil
}

// ProcessPayment returns the session's payment intent, creating it on first
// use. At most one gateway call is made per session, even under concurrent
// requests: the caller that wins the payment claim creates the intent.
func (s *Service) ProcessPayment(ctx context.Context, rc RequestContext) (*PaymentResult, error) {
	key := rc.key()

	var shipping ShippingInfo
	hasShipping, err := s.read(ctx, key, session.FieldShipping, &shipping)
	if err != nil {
		return nil, err
	}
	var pricing Pricing
	hasPricing, err := s.read(ctx, key, session.FieldPricing, &pricing)
	if err != nil {
		return nil, err
	}
	if !hasShipping || !hasPricing {
		return nil, s.expired(ctx, msgInvalidSession)
	}
	if pricing.TotalPrice <= 0 || pricing.TotalPrice > MaxTotalPrice {
		return nil, apperror.BadRequest("Invalid order total.", nil)
	}

	if res, err := s.cachedPayment(ctx, key); res != nil || err != nil {
		return res, err
	}

	claim := paymentClaim{ID: uuid.NewString(), RequestID: rc.RequestID, ClaimedAt: s.nowFunc()}
	won, err := s.store.WriteIfAbsent(ctx, key, session.FieldPaymentClaim, claim, s.claimTTL)
	if err != nil {
		return nil, err
	}
	if !won {
		if res, err := s.cachedPayment(ctx, key); res != nil || err != nil {
			return res, err
		}
		return nil, apperror.PaymentInProgress()
	}

	amount := MinorUnits(pricing.TotalPrice)
	req := payment.IntentRequest{
		Name:       shipping.Name,
		Line1:      shipping.Address,
		PostalCode: shipping.PinCode,
		City:       shipping.City,
		State:      shipping.State,
		User:       shipping.User,
		Amount:     amount,
	}
	req.IdempotencyKey = idempotencyKey(key, req)
	intent, err := s.gateway.CreateIntent(ctx, req)
	if err != nil {
		s.metrics.Incr(ctx, MetricGatewayFailed)
		s.releaseClaim(ctx, rc, key)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	intent.Amount = amount

	if err := s.store.Write(ctx, key, session.FieldPayment, intent, s.ttl); err != nil {
		s.log.Error("payment intent created but not cached",
			zap.String("user_id", rc.UserID),
			zap.String("payment_id", intent.PaymentID),
			zap.Error(err),
		)
		s.releaseClaim(ctx, rc, key)
		return nil, err
	}

	s.metrics.Incr(ctx, MetricPaymentCreated)
	s.log.Info("payment intent created",
		zap.String("user_id", rc.UserID),
		zap.String("payment_id", intent.PaymentID),
		zap.Int64("amount", amount),
	)
	s.announce(ctx, rc, intent)

	return &PaymentResult{Intent: *intent}, nil
}

// PublicKey returns the publishable key the client uses to confirm payments.
func (s *Service) PublicKey(rc RequestContext) (string, error) {
	if rc.UserID == "" {
		return "", apperror.New(http.StatusForbidden, msgAuthenticationFail, nil)
	}
	return s.publishableKey, nil
}

func (s *Service) cachedPayment(ctx context.Context, key session.Key) (*PaymentResult, error) {
	var intent payment.Intent
	found, err := s.read(ctx, key, session.FieldPayment, &intent)
	if err != nil || !found {
		return nil, err
	}
	s.metrics.Incr(ctx, MetricPaymentReused)
	return &PaymentResult{Intent: intent, Reused: true}, nil
}

func (s *Service) announce(ctx context.Context, rc RequestContext, intent *payment.Intent) {
	if s.events == nil {
		return
	}
	err := s.events.PaymentCreated(ctx, ledger.PaymentEvent{
		PaymentID: intent.PaymentID,
		UserID:    rc.UserID,
		Amount:    intent.Amount,
		Currency:  payment.Currency,
		RequestID: rc.RequestID,
	})
	if err != nil {
		s.log.Warn("publish payment event failed", zap.String("payment_id", intent.PaymentID), zap.Error(err))
	}
}

// idempotencyKey is stable for a session and request body, so a later claim
// on the same session replays the provider's intent instead of creating another.
func idempotencyKey(key session.Key, req payment.IntentRequest) string {
	h := sha256.New()
	h.Write([]byte(key.Fingerprint()))
	fmt.Fprintf(h, "|%s|%s|%s|%s|%s|%s|%d", req.Name, req.Line1, req.PostalCode, req.City, req.State, req.User, req.Amount)
	return "checkout-" + hex.EncodeToString(h.Sum(nil))
}

func (s *Service) releaseClaim(ctx context.Context, rc RequestContext, key session.Key) {
	if err := s.store.Remove(ctx, key, session.FieldPaymentClaim); err != nil {
		s.log.Warn("release payment claim failed", zap.String("user_id", rc.UserID), zap.Error(err))
	}
}

func (s *Service) clearPayment(ctx context.Context, key session.Key) error {
	if err := s.store.Remove(ctx, key, session.FieldPayment); err != nil {
		return err
	}
	return s.store.Remove(ctx, key, session.FieldPaymentClaim)
}

// read maps session.ErrNotFound to found=false.
func (s *Service) read(ctx context.Context, key session.Key, field session.Field, out interface{}) (bool, error) {
	err := s.store.Read(ctx, key, field, out)
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) expired(ctx context.Context, message string) error {
	s.metrics.Incr(ctx, MetricSessionExpired)
	return apperror.SessionExpired(message)
}
