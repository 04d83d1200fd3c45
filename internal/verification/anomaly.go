package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
	"certiva/pkg/requestcontext"
)

// detectAnomalies runs the full anomaly battery over the candidate: the pure
// pattern rules, the institutional statistical-outlier comparison, and the
// cross-reference checks (duplicates and blacklist). Findings come back
// ranked by risk score with priorities assigned.
//
// A repository failure aborts only this check; ErrNotFound from any lookup
// simply means the corresponding rule has nothing to say.
func (s *Service) detectAnomalies(ctx context.Context, candidate domain.CandidateSubmission) ([]domain.AnomalyFinding, error) {
	now := requestcontext.Now(ctx)

	findings := checkGradeRange(candidate)
	findings = append(findings, s.cfg.checkGradeConsistency(candidate)...)
	findings = append(findings, checkCertificateNumber(candidate)...)
	findings = append(findings, checkStudentName(candidate)...)
	findings = append(findings, checkTemporal(candidate, now)...)
	findings = append(findings, checkForgeryText(candidate)...)

	statistical, err := s.checkStatisticalOutlier(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("statistical outlier check: %w", err)
	}
	findings = append(findings, statistical...)

	crossRef, err := s.checkCrossReference(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("cross-reference check: %w", err)
	}
	findings = append(findings, crossRef...)

	return domain.RankFindings(findings), nil
}

// checkStatisticalOutlier compares the candidate's CGPA against the
// institution+course aggregate mean of verified records. Below the minimum
// sample size the comparison is noise and the rule stays silent.
func (s *Service) checkStatisticalOutlier(ctx context.Context, candidate domain.CandidateSubmission) ([]domain.AnomalyFinding, error) {
	if candidate.CGPA == nil || candidate.Course == "" {
		return nil, nil
	}

	stats, err := s.records.AggregateStats(ctx, candidate.InstitutionID, candidate.Course)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if stats == nil || stats.SampleSize < s.cfg.StatisticalMinSample {
		return nil, nil
	}

	deviation := *candidate.CGPA - stats.MeanCGPA
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= s.cfg.StatisticalCGPADeviation {
		return nil, nil
	}

	return []domain.AnomalyFinding{{
		Type:     domain.AnomalyStatisticalOutlier,
		Severity: domain.SeverityMedium,
		// A statistical signal is suggestive, never conclusive.
		Confidence: 65,
		Description: fmt.Sprintf("CGPA %.2f deviates %.2f points from the institutional mean %.2f (n=%d)",
			*candidate.CGPA, deviation, stats.MeanCGPA, stats.SampleSize),
		RiskScore: 60,
	}}, nil
}

// checkCrossReference looks for exact or near-exact collisions with existing
// records and for blacklist membership by certificate number or student name.
func (s *Service) checkCrossReference(ctx context.Context, candidate domain.CandidateSubmission) ([]domain.AnomalyFinding, error) {
	var findings []domain.AnomalyFinding

	duplicates, err := s.findDuplicateRecords(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyDuplicateCertificate,
			Severity:    domain.SeverityCritical,
			Confidence:  95,
			Description: fmt.Sprintf("%d existing record(s) collide with this certificate", len(duplicates)),
			RiskScore:   92,
		})
	}

	entry, err := s.lookupBlacklist(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyBlacklistedEntity,
			Severity:    domain.SeverityCritical,
			Confidence:  98,
			Description: fmt.Sprintf("%s %q is blacklisted: %s", strings.ToLower(string(entry.Type)), entry.Identifier, entry.Reason),
			RiskScore:   98,
		})
	}

	return findings, nil
}

func (s *Service) lookupBlacklist(ctx context.Context, candidate domain.CandidateSubmission) (*domain.BlacklistEntry, error) {
	lookups := []struct {
		entryType  domain.BlacklistType
		identifier string
	}{
		{domain.BlacklistCertificateNumber, candidate.CertificateNumber},
		{domain.BlacklistStudentName, candidate.StudentName},
	}
	for _, l := range lookups {
		if l.identifier == "" {
			continue
		}
		entry, err := s.records.FindBlacklistEntry(ctx, l.entryType, l.identifier)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return entry, nil
	}
	return nil, nil
}

// aggregateAnomalies folds findings into the single anomalyDetection check
// result. Each finding deducts a fixed severity-scaled amount; the check
// fails when any HIGH or CRITICAL finding is present.
func (s *Service) aggregateAnomalies(findings []domain.AnomalyFinding) domain.CheckResult {
	confidence := 100
	for _, f := range findings {
		confidence -= s.cfg.deduction(f.Severity)
	}
	if confidence < 0 {
		confidence = 0
	}

	worst := domain.HighestSeverity(findings)
	passed := worst != domain.SeverityHigh && worst != domain.SeverityCritical

	message := "no anomalies detected"
	if len(findings) > 0 {
		message = fmt.Sprintf("%d anomaly finding(s), highest severity %s", len(findings), worst)
	}

	return domain.CheckResult{
		Passed:     passed,
		Confidence: confidence,
		Message:    message,
		Details:    domain.AnomalyDetails{Findings: findings},
	}
}
