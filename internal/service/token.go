package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionTokenPrefix = "chk_"
	sessionTokenHexLen = 32
	orderNumberPrefix  = "ORD-"
	orderNumberHexLen  = 6
)

// NewSessionToken returns a fresh opaque checkout token: fixed prefix
// plus a fixed-length random hex suffix.
func NewSessionToken() string {
	return sessionTokenPrefix + randomHex(sessionTokenHexLen)
}

// ValidSessionToken checks the token shape so malformed input is
// rejected before any store lookup.
func ValidSessionToken(token string) bool {
	suffix, ok := strings.CutPrefix(token, sessionTokenPrefix)
	return ok && len(suffix) == sessionTokenHexLen && isHex(suffix)
}

// NewOrderNumber returns a human-referencable order number: prefix,
// millisecond timestamp, random hex suffix.
func NewOrderNumber() string {
	return fmt.Sprintf("%s%d-%s", orderNumberPrefix, time.Now().UnixMilli(), randomHex(orderNumberHexLen))
}

func ValidOrderNumber(number string) bool {
	rest, ok := strings.CutPrefix(number, orderNumberPrefix)
	if !ok {
		return false
	}
	ts, suffix, found := strings.Cut(rest, "-")
	if !found || len(suffix) != orderNumberHexLen || !isHex(suffix) {
		return false
	}
	for _, c := range ts {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(ts) > 0
}

// NewOrderAccessToken issues the short-lived guest token that lets the
// buyer read their order without an account.
func NewOrderAccessToken(secret string, ttl time.Duration, orderID uint, orderNumber string) (string, error) {
	claims := jwt.MapClaims{
		"jti":          uuid.NewString(),
		"sub":          orderNumber,
		"order_id":     orderID,
		"order_number": orderNumber,
		"exp":          jwt.NewNumericDate(time.Now().Add(ttl)),
		"iat":          jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign order access token: %w", err)
	}
	return signed, nil
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	rand.Read(buf)
	return hex.EncodeToString(buf)[:n]
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
