package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handyconnect-server/types"
)

func TestTokenService_RoundTrip(t *testing.T) {
	ts := newTestTokenService()
	p := types.Principal{Kind: types.PrincipalWorker, ID: 42}

	token, err := ts.Issue(p)
	require.NoError(t, err)
	assert.Equal(t, int64(24*3600), token.ExpiresIn)

	got, err := ts.Validate(token.Token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestTokenService_Rejects(t *testing.T) {
	ts := newTestTokenService()
	token, err := ts.Issue(types.Principal{Kind: types.PrincipalCustomer, ID: 7})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("another-secret-value", 24)
		_, err := other.Validate(token.Token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := newTestTokenService()
		late.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		_, err := late.Validate(token.Token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &types.Claims{
			PrincipalID: 7,
			Kind:        types.PrincipalAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Validate(unsigned)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ts.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ts.Issue(types.Principal{Kind: "robot", ID: 1})
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	ts := newTestTokenService()
	hash, err := ts.HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, ts.CheckPasswordHash("secret123", hash))
	assert.False(t, ts.CheckPasswordHash("secret124", hash))
}
