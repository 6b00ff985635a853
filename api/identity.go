/*
identity.go - Caller identity resolution

PURPOSE:
  Extracts the caller's user id from a signed JWT and makes it
  available to handlers via the request context. Handlers then resolve
  the id to a profile row (agent link, agency, role) and apply
  admin-vs-downline scoping.

TOKEN TRANSPORT:
  Authorization: Bearer <token>, with a "session-token" cookie as a
  fallback for browser sessions.

FAILURE MODE:
  Any missing, malformed, expired, or badly-signed token short-circuits
  with 401 and the standard error envelope. Handlers behind the
  middleware can assume a user id is present.

SEE ALSO:
  - handlers.go: Profile resolution and role scoping
  - cmd/server/main.go: Secret key configuration
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "session-token"

// TokenTTL is how long a minted session token stays valid.
const TokenTTL = 12 * time.Hour

type contextKey string

const contextKeyUserID contextKey = "user-id"

// Claims is the JWT payload: the registered claims plus our user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// MintToken signs a session token for the given user id.
func MintToken(userID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseToken validates the signature and expiry and returns the claims.
func parseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token carries no user id")
	}
	return claims, nil
}

// bearerToken pulls the token out of the request: Authorization header
// first, session cookie second.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Authentication returns middleware that requires a valid session
// token and stores the caller's user id in the request context.
func Authentication(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := parseToken(token, secret)
			if err != nil {
				log.LogAttrs(r.Context(), slog.LevelWarn,
					"authentication failed",
					slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerID returns the authenticated user id, or "" when the request
// never passed the middleware.
func callerID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID).(string)
	return id
}
