package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"certiva/internal/domain"
	"certiva/pkg/requestcontext"
)

// Publisher turns verification results into audit events and appends them to
// the configured store. It implements the engine's AuditPublisher port.
type Publisher struct {
	store Store
}

// NewPublisher constructs a publisher over the given sink.
func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// VerificationCompleted records one finished verification. Caller identity
// and the correlation ID come from the request context.
func (p *Publisher) VerificationCompleted(ctx context.Context, result *domain.VerificationResult) error {
	action := ActionVerificationCompleted
	if result.Status == domain.VerificationFailed {
		action = ActionVerificationFailed
	}
	return p.store.Append(ctx, Event{
		ID:                uuid.New(),
		Timestamp:         time.Now(),
		Action:            action,
		VerificationID:    result.ID,
		CertificateNumber: result.CertificateNumber,
		Valid:             result.IsValid,
		Confidence:        result.OverallConfidence,
		FlaggedReasons:    result.FlaggedReasons,
		CallerID:          requestcontext.CallerID(ctx),
		RequestID:         requestcontext.RequestID(ctx),
	})
}
