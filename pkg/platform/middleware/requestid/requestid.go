// Package requestid stamps every request with a correlation ID and a pinned
// request time, both readable downstream through pkg/requestcontext.
package requestid

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"certiva/pkg/requestcontext"
)

// Header is the inbound/outbound correlation header.
const Header = "X-Request-Id"

// Middleware accepts a caller-provided correlation ID or mints one, and pins
// the request time so all temporal checks in one request agree on "now".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
