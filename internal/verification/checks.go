package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
)

// checkInstitution is a boolean gate on the issuing institution: absent
// fails, present-but-untrusted degrades, trusted passes in full.
func (s *Service) checkInstitution(ctx context.Context, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	if candidate.InstitutionID == uuid.Nil {
		return domain.CheckResult{
			Passed:     false,
			Confidence: 0,
			Message:    "no institution declared on submission",
			Details:    domain.InstitutionDetails{},
		}, nil
	}

	institution, err := s.institutions.FindByID(ctx, candidate.InstitutionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.CheckResult{
				Passed:     false,
				Confidence: 0,
				Message:    "institution not found",
				Details:    domain.InstitutionDetails{InstitutionID: candidate.InstitutionID},
			}, nil
		}
		return domain.CheckResult{}, fmt.Errorf("find institution: %w", err)
	}

	details := domain.InstitutionDetails{
		InstitutionID: institution.ID,
		Found:         true,
		Active:        institution.Active,
		Verified:      institution.Verified,
	}
	if !institution.Trusted() {
		return domain.CheckResult{
			Passed:     false,
			Confidence: s.cfg.UntrustedInstitutionConfidence,
			Message:    fmt.Sprintf("institution %q is not active and verified", institution.Name),
			Details:    details,
		}, nil
	}
	return domain.CheckResult{
		Passed:     true,
		Confidence: 100,
		Message:    fmt.Sprintf("institution %q is active and verified", institution.Name),
		Details:    details,
	}, nil
}

// checkDuplicates passes only when no other stored record collides with the
// candidate by certificate number or by the name/roll/course/year tuple.
func (s *Service) checkDuplicates(ctx context.Context, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	duplicates, err := s.findDuplicateRecords(ctx, candidate)
	if err != nil {
		return domain.CheckResult{}, err
	}

	if len(duplicates) == 0 {
		return domain.CheckResult{
			Passed:     true,
			Confidence: 100,
			Message:    "no duplicate records found",
			Details:    domain.DuplicateDetails{},
		}, nil
	}

	ids := make([]uuid.UUID, 0, len(duplicates))
	for _, d := range duplicates {
		ids = append(ids, d.ID)
	}
	return domain.CheckResult{
		Passed:     false,
		Confidence: 0,
		Message:    fmt.Sprintf("%d duplicate record(s) found", len(duplicates)),
		Details:    domain.DuplicateDetails{Count: len(duplicates), RecordIDs: ids},
	}, nil
}

// findDuplicateRecords resolves the candidate's own stored record first so
// the duplicate query can exclude it. Both the duplicate check and the
// anomaly cross-reference rule share this path.
func (s *Service) findDuplicateRecords(ctx context.Context, candidate domain.CandidateSubmission) ([]domain.CertificateRecord, error) {
	excludeID := uuid.Nil
	if candidate.CertificateNumber != "" {
		own, err := s.records.FindByCertificateNumber(ctx, candidate.CertificateNumber)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("resolve own record: %w", err)
		}
		if own != nil {
			excludeID = own.ID
		}
	}
	duplicates, err := s.records.FindDuplicates(ctx, candidate, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	return duplicates, nil
}
