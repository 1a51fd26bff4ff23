package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessClaimsFromToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	sub := uuid.NewString()

	tok, err := SignAccessToken(secret, sub, "admin", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := SignAccessToken(secret, uuid.NewString(), "user", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestAccessClaimsFromToken_WrongSecret(t *testing.T) {
	tok, err := SignAccessToken([]byte("a"), uuid.NewString(), "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, []byte("b"))
	require.Error(t, err)
}
