// Package session stores the per-field state of an order session in a
// key-value backend with a sliding TTL per field.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the sliding expiry applied to each field on write.
const DefaultTTL = 30 * time.Minute

// Field names one independently stored part of an order session.
type Field string

const (
	FieldCartOrProducts Field = "cartOrProducts"
	FieldShipping       Field = "shipping"
	FieldPricing        Field = "pricing"
	FieldPayment        Field = "payment"
	// FieldPaymentClaim is the set-if-absent marker taken before calling the gateway.
	FieldPaymentClaim Field = "payment-claim"
)

// ErrNotFound is returned by Read when the field was never written or has expired.
var ErrNotFound = errors.New("session field not found")

// Key identifies one order session.
type Key struct {
	UserID string
	Token  string
}

// storageKey returns the backend key for field. The token is hashed so keys
// stay short and the raw credential never sits in the cache.
func (k Key) storageKey(f Field) string {
	return fmt.Sprintf("order-session:%s:%s:%s", k.UserID, k.Fingerprint(), f)
}

// Fingerprint is the hex SHA-256 of the session token. It is stable for the
// life of the session and safe to hand to external systems.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256([]byte(k.Token))
	return hex.EncodeToString(sum[:])
}

// Store is the contract shared by the Redis and DynamoDB backends.
// Values are JSON encoded. Fields are independent; there is no cross-field transaction.
type Store interface {
	// Write stores value under (key, field) and resets its expiry to ttl.
	Write(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) error
	// WriteIfAbsent stores value only if (key, field) holds no live value.
	// It reports whether this call created the value.
	WriteIfAbsent(ctx context.Context, key Key, field Field, value interface{}, ttl time.Duration) (bool, error)
	// Read decodes the value into out, or returns ErrNotFound.
	Read(ctx context.Context, key Key, field Field, out interface{}) error
	// Remove deletes the field. Removing a missing field is not an error.
	Remove(ctx context.Context, key Key, field Field) error
}
