// Package httptransport assembles the public HTTP surface: middleware
// chain, API routes, health, and metrics.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	verificationhandler "certiva/internal/verification/handler"
	"certiva/pkg/platform/middleware/auth"
	"certiva/pkg/platform/middleware/requestid"
)

// NewRouter wires the middleware chain and mounts all endpoints. The
// verification API sits behind authentication; health and metrics do not.
func NewRouter(verification *verificationhandler.Handler, jwtSigningKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware(jwtSigningKey))
		verification.Register(api)
	})

	return r
}
