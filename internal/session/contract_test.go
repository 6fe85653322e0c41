package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

type shipping struct {
	Name    string `json:"name"`
	PinCode string `json:"pinCode"`
}

// runStoreContract exercises the behaviour every backend must share.
// advance moves the backend's clock forward.
func runStoreContract(t *testing.T, s Store, advance func(time.Duration)) {
	ctx := context.Background()
	key := Key{UserID: "u1", Token: "tok-1"}
	other := Key{UserID: "u1", Token: "tok-2"}

	t.Run("read missing", func(t *testing.T) {
		var got shipping
		if err := s.Read(ctx, key, FieldShipping, &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("write then read", func(t *testing.T) {
		want := shipping{Name: "R", PinCode: "560001"}
		if err := s.Write(ctx, key, FieldShipping, want, DefaultTTL); err != nil {
			t.Fatalf("write: %v", err)
		}
		var got shipping
		if err := s.Read(ctx, key, FieldShipping, &got); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: %+v != %+v", got, want)
		}
		// a different token is a different session
		if err := s.Read(ctx, other, FieldShipping, &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected other session to be empty, got %v", err)
		}
	})

	t.Run("overwrite refreshes ttl", func(t *testing.T) {
		if err := s.Write(ctx, key, FieldPricing, map[string]int{"totalPrice": 1}, DefaultTTL); err != nil {
			t.Fatalf("write: %v", err)
		}
		advance(20 * time.Minute)
		if err := s.Write(ctx, key, FieldPricing, map[string]int{"totalPrice": 2}, DefaultTTL); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		advance(20 * time.Minute)
		var got map[string]int
		if err := s.Read(ctx, key, FieldPricing, &got); err != nil {
			t.Fatalf("read after refresh: %v", err)
		}
		if got["totalPrice"] != 2 {
			t.Fatalf("expected overwritten value, got %v", got)
		}
	})

	t.Run("expires after ttl", func(t *testing.T) {
		if err := s.Write(ctx, key, FieldCartOrProducts, []string{"A1"}, DefaultTTL); err != nil {
			t.Fatalf("write: %v", err)
		}
		advance(DefaultTTL + time.Second)
		var got []string
		if err := s.Read(ctx, key, FieldCartOrProducts, &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after ttl, got %v", err)
		}
	})

	t.Run("write if absent", func(t *testing.T) {
		created, err := s.WriteIfAbsent(ctx, key, FieldPaymentClaim, "first", time.Minute)
		if err != nil || !created {
			t.Fatalf("expected first claim to win, created=%v err=%v", created, err)
		}
		created, err = s.WriteIfAbsent(ctx, key, FieldPaymentClaim, "second", time.Minute)
		if err != nil || created {
			t.Fatalf("expected second claim to lose, created=%v err=%v", created, err)
		}
		var got string
		if err := s.Read(ctx, key, FieldPaymentClaim, &got); err != nil || got != "first" {
			t.Fatalf("expected first value kept, got %q err=%v", got, err)
		}
		advance(time.Minute + time.Second)
		created, err = s.WriteIfAbsent(ctx, key, FieldPaymentClaim, "third", time.Minute)
		if err != nil || !created {
			t.Fatalf("expected claim after expiry to win, created=%v err=%v", created, err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := s.Write(ctx, key, FieldPayment, "pi_1", DefaultTTL); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := s.Remove(ctx, key, FieldPayment); err != nil {
			t.Fatalf("remove: %v", err)
		}
		var got string
		if err := s.Read(ctx, key, FieldPayment, &got); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after remove, got %v", err)
		}
		if err := s.Remove(ctx, key, FieldPayment); err != nil {
			t.Fatalf("removing a missing field should succeed: %v", err)
		}
	})
}

func TestStorageKey_HashesToken(t *testing.T) {
	k := Key{UserID: "u1", Token: "secret.jwt.value"}
	got := k.storageKey(FieldShipping)
	if len(got) != len("order-session:u1:")+64+len(":shipping") {
		t.Fatalf("unexpected key %q", got)
	}
	if k.storageKey(FieldShipping) != got {
		t.Fatalf("key must be stable")
	}
	if (Key{UserID: "u1", Token: "other"}).storageKey(FieldShipping) == got {
		t.Fatalf("different tokens must not collide")
	}
}
