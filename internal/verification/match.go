package verification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
	"certiva/pkg/platform/similarity"
)

// Field weights for the record matcher. Only fields present on both sides
// contribute to the denominator, so a sparse candidate is scored on what it
// actually declares.
const (
	weightStudentName       = 25
	weightCertificateNumber = 20
	weightCourse            = 15
	weightPassingYear       = 10
	weightRollNumber        = 10
	weightGrade             = 5
	weightCGPA              = 5
	weightPercentage        = 5
	weightDateOfIssue       = 5
)

// issueDateSlackDays is the window inside which issue dates still score 0.8.
const issueDateSlackDays = 7

// matchOutcome is the record matcher's raw result before it becomes a
// CheckResult.
type matchOutcome struct {
	record      *domain.CertificateRecord
	score       int
	fieldScores map[string]float64
}

// matchRecord finds the best canonical record for the candidate and scores it
// field by field. Certificate number is the authoritative key; the fuzzy
// name+roll+institution lookup is only a fallback for OCR-mangled numbers.
func (s *Service) matchRecord(ctx context.Context, candidate domain.CandidateSubmission) (*matchOutcome, error) {
	record, err := s.lookupCandidate(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	score, fieldScores := scoreMatch(candidate, record)
	return &matchOutcome{record: record, score: score, fieldScores: fieldScores}, nil
}

func (s *Service) lookupCandidate(ctx context.Context, candidate domain.CandidateSubmission) (*domain.CertificateRecord, error) {
	if candidate.CertificateNumber != "" {
		record, err := s.records.FindByCertificateNumber(ctx, candidate.CertificateNumber)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("lookup by certificate number: %w", err)
		}
	}

	if candidate.StudentName == "" {
		return nil, nil
	}
	record, err := s.records.FindByNameRollCourseYear(ctx,
		candidate.StudentName, candidate.RollNumber, candidate.Course,
		candidate.PassingYear, candidate.InstitutionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup by name and roll: %w", err)
	}
	return record, nil
}

// scoreMatch computes the weighted field-by-field match score in [0,100].
func scoreMatch(candidate domain.CandidateSubmission, record *domain.CertificateRecord) (int, map[string]float64) {
	fieldScores := make(map[string]float64)
	var weighted, totalWeight float64

	add := func(name string, weight int, score float64) {
		fieldScores[name] = score
		weighted += float64(weight) * score
		totalWeight += float64(weight)
	}

	if candidate.StudentName != "" && record.StudentName != "" {
		add("studentName", weightStudentName,
			similarity.Score(strings.ToLower(candidate.StudentName), strings.ToLower(record.StudentName)))
	}
	if candidate.CertificateNumber != "" && record.CertificateNumber != "" {
		add("certificateNumber", weightCertificateNumber,
			exact(strings.EqualFold(candidate.CertificateNumber, record.CertificateNumber)))
	}
	if candidate.Course != "" && record.Course != "" {
		add("course", weightCourse,
			similarity.Score(strings.ToLower(candidate.Course), strings.ToLower(record.Course)))
	}
	if candidate.PassingYear != 0 && record.PassingYear != 0 {
		add("passingYear", weightPassingYear, exact(candidate.PassingYear == record.PassingYear))
	}
	if candidate.RollNumber != "" && record.RollNumber != "" {
		add("rollNumber", weightRollNumber, exact(strings.EqualFold(candidate.RollNumber, record.RollNumber)))
	}
	if candidate.Grade != "" && record.Grade != "" {
		add("grade", weightGrade, exact(strings.EqualFold(candidate.Grade, record.Grade)))
	}
	if candidate.CGPA != nil && record.CGPA != nil {
		add("cgpa", weightCGPA, exact(math.Abs(*candidate.CGPA-*record.CGPA) < 0.01))
	}
	if candidate.Percentage != nil && record.Percentage != nil {
		add("percentage", weightPercentage, exact(math.Abs(*candidate.Percentage-*record.Percentage) < 0.01))
	}
	if candidate.DateOfIssue != nil && !record.DateOfIssue.IsZero() {
		add("dateOfIssue", weightDateOfIssue, issueDateScore(*candidate.DateOfIssue, record.DateOfIssue))
	}

	if totalWeight == 0 {
		return 0, fieldScores
	}
	return int(math.Round(weighted / totalWeight * 100)), fieldScores
}

func exact(equal bool) float64 {
	if equal {
		return 1.0
	}
	return 0.0
}

// issueDateScore scores exact-day matches 1.0, dates within the slack window
// 0.8, everything else 0. OCR frequently mangles day digits, hence the slack.
func issueDateScore(a, b time.Time) float64 {
	day := func(t time.Time) time.Time {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	diff := day(a).Sub(day(b))
	if diff < 0 {
		diff = -diff
	}
	days := int(diff.Hours() / 24)
	switch {
	case days == 0:
		return 1.0
	case days <= issueDateSlackDays:
		return 0.8
	default:
		return 0.0
	}
}
