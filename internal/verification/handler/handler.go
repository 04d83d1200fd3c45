// Package handler is the thin HTTP layer over the verification engine. It
// decodes submissions, delegates to the service, and caches results; no
// verification logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certiva/internal/domain"
	"certiva/internal/verification/cache"
	"certiva/internal/verification/ports"
	dErrors "certiva/pkg/domain-errors"
	"certiva/pkg/platform/httputil"
	"certiva/pkg/requestcontext"
)

// Service defines the engine surface the handler depends on.
type Service interface {
	Verify(ctx context.Context, candidate domain.CandidateSubmission) (*domain.VerificationResult, error)
}

// Handler wires verification endpoints to the engine.
type Handler struct {
	service Service
	cache   *cache.ResultCache
	logger  *slog.Logger
}

// New constructs a verification handler. cache may be nil when result
// retention is disabled.
func New(service Service, resultCache *cache.ResultCache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, cache: resultCache, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Get("/verifications/{certificateNumber}", h.HandleGetVerification)
}

// HandleVerify handles POST /verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	candidate, err := req.ToDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(ctx, candidate)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"certificate_number", req.CertificateNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	response := FromResult(result)
	h.cacheResult(ctx, result, response)

	h.logger.InfoContext(ctx, "verification served",
		"request_id", requestID,
		"certificate_number", req.CertificateNumber,
		"status", result.Status,
		"valid", result.IsValid,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleGetVerification handles GET /verifications/{certificateNumber},
// serving the most recent cached result for that certificate.
func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certificateNumber := chi.URLParam(r, "certificateNumber")

	if h.cache == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "result retention is disabled"))
		return
	}
	payload, err := h.cache.Find(ctx, certificateNumber)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no retained verification for this certificate"))
			return
		}
		h.logger.ErrorContext(ctx, "result cache read failed",
			"certificate_number", certificateNumber,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "result cache unavailable", err))
		return
	}
	httputil.WriteRaw(w, http.StatusOK, payload)
}

// cacheResult retains the completed result. Best effort: a cache outage
// never fails the verification response.
func (h *Handler) cacheResult(ctx context.Context, result *domain.VerificationResult, response VerifyResponse) {
	if h.cache == nil || result.CertificateNumber == "" || result.Status != domain.VerificationCompleted {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal result for cache failed", "error", err)
		return
	}
	if err := h.cache.Save(ctx, result.CertificateNumber, payload); err != nil {
		h.logger.WarnContext(ctx, "result cache write failed",
			"certificate_number", result.CertificateNumber,
			"error", err,
		)
	}
}
