package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_DecodesToUserAndExpiry(t *testing.T) {
	iss := NewIssuer("test-secret", 0)

	tok, issued, err := iss.Issue("u1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssue_TokensAreDistinct(t *testing.T) {
	iss := NewIssuer("test-secret", time.Minute)

	a, _, err := iss.Issue("u1")
	require.NoError(t, err)
	b, _, err := iss.Issue("u1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssue_EmptyUser(t *testing.T) {
	_, _, err := NewIssuer("s", 0).Issue("")
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	iss := NewIssuer("test-secret", 30*time.Minute)
	iss.nowFunc = func() time.Time { return time.Now().Add(-31 * time.Minute) }

	tok, _, err := iss.Issue("u1")
	require.NoError(t, err)

	_, err = NewIssuer("test-secret", 0).Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
	assert.False(t, errors.Is(err, ErrInvalid))
}

func TestVerify_BadSignature(t *testing.T) {
	tok, _, err := NewIssuer("secret-a", 0).Issue("u1")
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", 0).Verify(tok)
	assert.ErrorIs(t, err, ErrSignature)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	iss := NewIssuer("test-secret", 0)

	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		_, err := iss.Verify(in)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", in)
	}
}

func TestVerify_RejectsNonHMAC(t *testing.T) {
	claims := &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("test-secret", 0).Verify(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerify_MissingUser(t *testing.T) {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewIssuer("test-secret", 0).Verify(tok)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing userId"))
}
