package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/checkout"
	"github.com/imrishuroy/go-checkout-session/internal/logger"
	"github.com/imrishuroy/go-checkout-session/internal/token"
)

// Headers read by the auth middlewares.
const (
	HeaderUserID     = "X-User-ID"
	HeaderOrderToken = "X-Order-Token"
)

const (
	userIDKey       = "user_id"
	orderSessionKey = "order_session"
)

// RequireUser rejects requests without an authenticated user id. The id is
// set by the upstream authorizer.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			_ = c.Error(apperror.New(http.StatusForbidden, "Authentication Failed", nil))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireOrderSession verifies the order token and stores the resulting
// checkout.RequestContext for the handlers.
func RequireOrderSession(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := orderToken(c)
		if raw == "" {
			_ = c.Error(fmt.Errorf("missing order token: %w", token.ErrMalformed))
			c.Abort()
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(orderSessionKey, checkout.RequestContext{
			UserID:    claims.UserID,
			Token:     raw,
			RequestID: logger.RequestID(c),
		})
		c.Next()
	}
}

// OrderSession returns the context stored by RequireOrderSession, or the zero
// value when the middleware did not run.
func OrderSession(c *gin.Context) checkout.RequestContext {
	v, ok := c.Get(orderSessionKey)
	if !ok {
		return checkout.RequestContext{}
	}
	rc, _ := v.(checkout.RequestContext)
	return rc
}

func orderToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if parts := strings.SplitN(auth, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.GetHeader(HeaderOrderToken))
}

// DefaultLimiterIdle is how long an unused bucket is kept.
const DefaultLimiterIdle = 5 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller. Buckets idle for longer
// than the idle window are swept, at most once per window.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	nowFunc   func() time.Time
}

// NewRateLimiter returns a limiter allowing r events per second with burst b
// per caller, forgetting callers idle for longer than idle.
func NewRateLimiter(r rate.Limit, b int, idle time.Duration) *RateLimiter {
	if b < 1 {
		b = 1
	}
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	return &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      r,
		burst:     b,
		idle:      idle,
		lastSweep: time.Now(),
		nowFunc:   time.Now,
	}
}

// Limiter returns the bucket for key, creating it on first use.
func (rl *RateLimiter) Limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	if now.Sub(rl.lastSweep) > rl.idle {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > rl.idle {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	if e, ok := rl.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	e := &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: now}
	rl.limiters[key] = e
	return e.limiter
}

// RateLimit throttles per user, falling back to the client IP.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := OrderSession(c).UserID
		if key == "" {
			key = UserID(c)
		}
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !rl.Limiter(key).Allow() {
			_ = c.Error(apperror.New(http.StatusTooManyRequests, "Too many requests, please try again later.", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
