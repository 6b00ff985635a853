/*
identity_test.go - Tests for session token minting and validation
*/
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndParseToken(t *testing.T) {
	secret := []byte("secret")

	token, err := MintToken("user-1", secret)
	require.NoError(t, err)

	claims, err := parseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := MintToken("user-1", []byte("secret"))
	require.NoError(t, err)

	_, err = parseToken(token, []byte("other"))
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("secret")
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "user-1",
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)

	_, err = parseToken(signed, secret)
	assert.Error(t, err)
}

func TestParseToken_NoUserID(t *testing.T) {
	secret := []byte("secret")
	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := anonymous.SignedString(secret)
	require.NoError(t, err)

	_, err = parseToken(signed, secret)
	assert.Error(t, err)
}

func TestBearerToken_HeaderAndCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", bearerToken(r))

	// Cookie is the fallback when no header is present.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "xyz"})
	assert.Equal(t, "xyz", bearerToken(r))
}
