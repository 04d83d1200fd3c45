// Package audit captures structured audit events for completed
// verifications. Events are transport-agnostic so sinks can fan out to
// memory, Kafka, or anything else without touching the engine.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
const (
	ActionVerificationCompleted = "verification.completed"
	ActionVerificationFailed    = "verification.failed"
)

// Event is emitted once per finished verification.
type Event struct {
	ID                uuid.UUID `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Action            string    `json:"action"`
	VerificationID    uuid.UUID `json:"verification_id"`
	CertificateNumber string    `json:"certificate_number,omitempty"`
	Valid             bool      `json:"valid"`
	Confidence        int       `json:"confidence"`
	FlaggedReasons    []string  `json:"flagged_reasons,omitempty"`
	CallerID          string    `json:"caller_id,omitempty"`
	RequestID         string    `json:"request_id,omitempty"`
}
