// Package ports defines the collaborator interfaces the verification engine
// consumes. The engine depends only on these, never on concrete stores or
// clients, so every check stays testable with in-memory fakes.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"certiva/internal/domain"
)

// ErrNotFound is returned by repositories when no row matches the lookup.
// Engine checks treat it as "absent", not as a collaborator failure.
var ErrNotFound = errors.New("not found")

// AggregateStats summarizes verified records for one institution + course.
type AggregateStats struct {
	MeanCGPA       float64
	MeanPercentage float64
	SampleSize     int
}

// RecordRepository is the certificate record lookup surface.
type RecordRepository interface {
	FindByCertificateNumber(ctx context.Context, number string) (*domain.CertificateRecord, error)
	FindByNameRollCourseYear(ctx context.Context, name, roll, course string, year int, institutionID uuid.UUID) (*domain.CertificateRecord, error)
	FindDuplicates(ctx context.Context, candidate domain.CandidateSubmission, excludeID uuid.UUID) ([]domain.CertificateRecord, error)
	AggregateStats(ctx context.Context, institutionID uuid.UUID, course string) (*AggregateStats, error)
	FindBlacklistEntry(ctx context.Context, entryType domain.BlacklistType, identifier string) (*domain.BlacklistEntry, error)
}

// InstitutionRepository resolves issuing institutions.
type InstitutionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Institution, error)
}

// LedgerProof is the ledger collaborator's answer for a digest lookup.
type LedgerProof struct {
	Exists  bool
	Payload string
}

// LedgerClient validates certificate digests against the external ledger.
// Digest is a pure function over the fixed field tuple; Validate performs I/O.
type LedgerClient interface {
	Digest(record *domain.CertificateRecord) string
	Validate(ctx context.Context, digest string) (*LedgerProof, error)
}

// AuditPublisher records completed verifications for the audit trail. A nil
// publisher is valid; auditing never blocks a verification result.
type AuditPublisher interface {
	VerificationCompleted(ctx context.Context, result *domain.VerificationResult) error
}
