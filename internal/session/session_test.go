package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestIdentity(t *testing.T) {
	token := signToken(t, &Claims{
		UserID:   17,
		Nickname: "Ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := Identity(token)
	require.NoError(t, err)
	assert.Equal(t, int64(17), claims.UserID)
	assert.Equal(t, "Ann", claims.Nickname)
}

func TestIdentityGarbageToken(t *testing.T) {
	_, err := Identity("not-a-jwt")
	assert.Error(t, err)
}

func TestIdentityMissingUserID(t *testing.T) {
	token := signToken(t, &Claims{Nickname: "Ann"})

	_, err := Identity(token)
	assert.Error(t, err)
}
