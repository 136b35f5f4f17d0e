package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenFormat(t *testing.T) {
	token := NewSessionToken()

	assert.True(t, ValidSessionToken(token))
	assert.NotEqual(t, token, NewSessionToken())

	assert.False(t, ValidSessionToken(""))
	assert.False(t, ValidSessionToken("chk_short"))
	assert.False(t, ValidSessionToken("chk_ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ"))
	assert.False(t, ValidSessionToken("ord_0123456789abcdef0123456789abcdef"))
}

func TestOrderNumberFormat(t *testing.T) {
	number := NewOrderNumber()

	assert.True(t, ValidOrderNumber(number))

	assert.False(t, ValidOrderNumber("ORD-"))
	assert.False(t, ValidOrderNumber("ORD-abc-def123"))
	assert.False(t, ValidOrderNumber("1699999999999-abc123"))
	assert.False(t, ValidOrderNumber("ORD-1699999999999-xyz"))
}

func TestOrderAccessToken_Claims(t *testing.T) {
	signed, err := NewOrderAccessToken("secret", time.Hour, 42, "ORD-1-abc123")
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "ORD-1-abc123", claims["order_number"])
	assert.Equal(t, float64(42), claims["order_id"])
	assert.NotEmpty(t, claims["jti"])
}
