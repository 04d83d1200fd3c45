package verification

import (
	"context"
	"errors"
	"fmt"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
)

// checkLedger validates the certificate's digest against the ledger.
//
// Legacy certificates are exempt from ledger presence: the digest is derived
// locally so future submissions of the same certificate can be deduplicated,
// and the check passes with a reduced confidence. For everything else a
// stored digest is mandatory and a ledger mismatch is tampering evidence,
// never a soft signal.
//
// A returned error means the collaborator was unreachable; the orchestrator
// converts it into a failed check without aborting the other checks.
func (s *Service) checkLedger(ctx context.Context, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	record, err := s.ledgerSubject(ctx, candidate)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if record == nil {
		return failedCheck("no stored record to validate against the ledger"), nil
	}

	derived := s.ledger.Digest(record)

	if record.LedgerDigest == "" {
		if record.IsLegacy {
			return domain.CheckResult{
				Passed:     true,
				Confidence: s.cfg.LegacyLedgerConfidence,
				Message:    "legacy certificate exempt from ledger presence; local fingerprint derived",
				Details:    domain.LedgerDetails{Digest: derived, Legacy: true},
			}, nil
		}
		return domain.CheckResult{
			Passed:     false,
			Confidence: 0,
			Message:    "missing digest for non-legacy certificate",
			Details:    domain.LedgerDetails{Digest: derived},
		}, nil
	}

	proof, err := s.ledger.Validate(ctx, record.LedgerDigest)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("validate digest: %w", err)
	}

	if !proof.Exists || derived != record.LedgerDigest {
		// InconsistentData, not unavailability: surface as tampering
		// evidence rather than a degraded collaborator.
		return domain.CheckResult{
			Passed:     false,
			Confidence: 0,
			Message:    "ledger digest mismatch: possible tampering",
			Details: domain.LedgerDetails{
				Digest:          derived,
				StoredDigest:    record.LedgerDigest,
				Legacy:          record.IsLegacy,
				LedgerConfirmed: proof.Exists,
			},
		}, nil
	}

	return domain.CheckResult{
		Passed:     true,
		Confidence: 100,
		Message:    "ledger digest confirmed",
		Details: domain.LedgerDetails{
			Digest:          derived,
			StoredDigest:    record.LedgerDigest,
			Legacy:          record.IsLegacy,
			LedgerConfirmed: true,
		},
	}, nil
}

// ledgerSubject resolves the stored record the ledger check operates on. The
// check is self-sufficient: it performs its own lookup so it has no data
// dependency on the record-match check running next to it.
func (s *Service) ledgerSubject(ctx context.Context, candidate domain.CandidateSubmission) (*domain.CertificateRecord, error) {
	if candidate.CertificateNumber == "" {
		return nil, nil
	}
	record, err := s.records.FindByCertificateNumber(ctx, candidate.CertificateNumber)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return record, nil
}

func failedCheck(message string) domain.CheckResult {
	return domain.CheckResult{Passed: false, Confidence: 0, Message: message}
}
