// Package token mints and verifies the signed order-session token that binds a
// user to one checkout attempt.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an order-session token.
const DefaultTTL = 30 * time.Minute

var (
	// ErrInvalid is the parent of every non-expiry verification failure.
	ErrInvalid = errors.New("invalid order token")
	// ErrMalformed means the token could not be parsed or used an unexpected algorithm.
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalid)
	// ErrSignature means the token parsed but its signature did not match.
	ErrSignature = fmt.Errorf("%w: signature mismatch", ErrInvalid)
	// ErrExpired means the token was valid but its exp claim has passed.
	ErrExpired = errors.New("order token expired")
)

// Claims is the payload of an order-session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies order-session tokens with an HMAC secret.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewIssuer returns an Issuer. A zero ttl means DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// TTL returns the token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a new token for userID. Every call produces a distinct token.
func (i *Issuer) Issue(userID string) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("issue token: empty user id")
	}
	now := i.nowFunc()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses tokenStr and returns its claims. The error is one of
// ErrMalformed, ErrSignature or ErrExpired.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrMalformed)
	}
	return claims, nil
}
