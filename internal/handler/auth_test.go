package handler

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	signed := signToken(t, "secret", Claims{
		UserID:   userID.String(),
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	parsedID, username, err := ParseToken("secret", signed)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, "alice", username)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signed := signToken(t, "secret", Claims{
		UserID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, _, err := ParseToken("other-secret", signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	signed := signToken(t, "secret", Claims{
		UserID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, _, err := ParseToken("secret", signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsMalformedUserID(t *testing.T) {
	signed := signToken(t, "secret", Claims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, _, err := ParseToken("secret", signed)
	assert.Error(t, err)
}
