// Package auth provides bearer-token authentication for the API. Verifier
// callers (institutions, employers, background-check agencies) authenticate
// with signed JWTs; the subject claim becomes the caller identity for audit.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "certiva/pkg/domain-errors"
	"certiva/pkg/platform/httputil"
	"certiva/pkg/requestcontext"
)

// Claims are the JWT claims the API expects.
type Claims struct {
	jwt.RegisteredClaims
}

// Middleware validates the Authorization header and stores the caller
// identity in the request context. An empty signing key disables
// authentication (development mode).
func Middleware(signingKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signingKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			callerID, err := authenticate(r, signingKey)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx := requestcontext.WithCallerID(r.Context(), callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, signingKey string) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing authorization header")
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authorization header must be a bearer token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil || !token.Valid {
		return "", dErrors.Wrap(dErrors.CodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims.Subject, nil
}
