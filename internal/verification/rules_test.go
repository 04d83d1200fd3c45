package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"certiva/internal/domain"
)

func fp(v float64) *float64 { return &v }

func tp(t time.Time) *time.Time { return &t }

func TestCheckGradeRange(t *testing.T) {
	tests := []struct {
		name       string
		submission domain.CandidateSubmission
		want       int
	}{
		{name: "cgpa above scale", submission: domain.CandidateSubmission{CGPA: fp(12)}, want: 1},
		{name: "negative cgpa", submission: domain.CandidateSubmission{CGPA: fp(-1)}, want: 1},
		{name: "percentage above 100", submission: domain.CandidateSubmission{Percentage: fp(105)}, want: 1},
		{name: "both impossible", submission: domain.CandidateSubmission{CGPA: fp(11), Percentage: fp(130)}, want: 2},
		{name: "boundary values pass", submission: domain.CandidateSubmission{CGPA: fp(10), Percentage: fp(100)}, want: 0},
		{name: "no grades declared", submission: domain.CandidateSubmission{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := checkGradeRange(tt.submission)
			require.Len(t, findings, tt.want)
			for _, f := range findings {
				require.Equal(t, domain.AnomalyImpossibleGrade, f.Type)
				require.Equal(t, domain.SeverityCritical, f.Severity)
			}
		})
	}
}

func TestCheckGradeConsistency(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("consistent pair is silent", func(t *testing.T) {
		// 8.0 CGPA -> expected 76%, declared 78% is within the limit.
		findings := cfg.checkGradeConsistency(domain.CandidateSubmission{CGPA: fp(8.0), Percentage: fp(78)})
		require.Empty(t, findings)
	})

	t.Run("moderate deviation is medium", func(t *testing.T) {
		// 9.0 CGPA -> expected 85.5%, declared 60% deviates 25.5 points.
		findings := cfg.checkGradeConsistency(domain.CandidateSubmission{CGPA: fp(9.0), Percentage: fp(60)})
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyGradeInconsistency, findings[0].Type)
		require.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("extreme deviation escalates to high", func(t *testing.T) {
		// 9.5 CGPA -> expected 90.25%, declared 40% deviates over twice the limit.
		findings := cfg.checkGradeConsistency(domain.CandidateSubmission{CGPA: fp(9.5), Percentage: fp(40)})
		require.Len(t, findings, 1)
		require.Equal(t, domain.SeverityHigh, findings[0].Severity)
	})

	t.Run("impossible values are left to the range rule", func(t *testing.T) {
		findings := cfg.checkGradeConsistency(domain.CandidateSubmission{CGPA: fp(12), Percentage: fp(50)})
		require.Empty(t, findings)
	})

	t.Run("missing either side is silent", func(t *testing.T) {
		require.Empty(t, cfg.checkGradeConsistency(domain.CandidateSubmission{CGPA: fp(8)}))
		require.Empty(t, cfg.checkGradeConsistency(domain.CandidateSubmission{Percentage: fp(80)}))
	})
}

func TestCheckCertificateNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		wantType domain.AnomalyType
		severity domain.Severity
	}{
		{name: "repeated digits", number: "CERT-1111", wantType: domain.AnomalySequentialCertNumber, severity: domain.SeverityHigh},
		{name: "ascending run", number: "CERT-1234", wantType: domain.AnomalySequentialCertNumber, severity: domain.SeverityMedium},
		{name: "descending run", number: "CERT-9876", wantType: domain.AnomalySequentialCertNumber, severity: domain.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := checkCertificateNumber(domain.CandidateSubmission{CertificateNumber: tt.number})
			require.Len(t, findings, 1)
			require.Equal(t, tt.wantType, findings[0].Type)
			require.Equal(t, tt.severity, findings[0].Severity)
		})
	}

	t.Run("ordinary numbers pass", func(t *testing.T) {
		require.Empty(t, checkCertificateNumber(domain.CandidateSubmission{CertificateNumber: "CERT-2021-4817"}))
	})

	t.Run("short repeated digits pass", func(t *testing.T) {
		// Three repeated digits are common in real series; four is the line.
		require.Empty(t, checkCertificateNumber(domain.CandidateSubmission{CertificateNumber: "A-111"}))
	})

	t.Run("no digits at all pass", func(t *testing.T) {
		require.Empty(t, checkCertificateNumber(domain.CandidateSubmission{CertificateNumber: "CERT-ABCD"}))
	})
}

func TestCheckStudentName(t *testing.T) {
	t.Run("placeholder name", func(t *testing.T) {
		findings := checkStudentName(domain.CandidateSubmission{StudentName: "John Doe"})
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalySuspiciousName, findings[0].Type)
		require.Equal(t, domain.SeverityHigh, findings[0].Severity)
	})

	t.Run("invalid characters", func(t *testing.T) {
		findings := checkStudentName(domain.CandidateSubmission{StudentName: "Rahul Sharma <123>"})
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyInvalidCharacters, findings[0].Type)
	})

	t.Run("legitimate punctuation passes", func(t *testing.T) {
		require.Empty(t, checkStudentName(domain.CandidateSubmission{StudentName: "O'Brien-D'Souza Jr."}))
	})

	t.Run("non-latin letters pass", func(t *testing.T) {
		require.Empty(t, checkStudentName(domain.CandidateSubmission{StudentName: "राहुल शर्मा"}))
	})

	t.Run("empty name is silent", func(t *testing.T) {
		require.Empty(t, checkStudentName(domain.CandidateSubmission{}))
	})
}

func TestCheckTemporal(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	t.Run("future passing year", func(t *testing.T) {
		findings := checkTemporal(domain.CandidateSubmission{PassingYear: 2027}, now)
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyFuturePassingYear, findings[0].Type)
		require.Equal(t, domain.SeverityCritical, findings[0].Severity)
	})

	t.Run("future issue date", func(t *testing.T) {
		findings := checkTemporal(domain.CandidateSubmission{
			PassingYear: 2025,
			DateOfIssue: tp(now.AddDate(0, 1, 0)),
		}, now)
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyFutureIssueDate, findings[0].Type)
	})

	t.Run("completion after issue", func(t *testing.T) {
		issue := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
		completion := time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC)
		findings := checkTemporal(domain.CandidateSubmission{
			PassingYear:    2021,
			DateOfIssue:    &issue,
			CompletionDate: &completion,
		}, now)
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyCompletionAfterIssue, findings[0].Type)
		require.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("current year passes", func(t *testing.T) {
		require.Empty(t, checkTemporal(domain.CandidateSubmission{PassingYear: 2026}, now))
	})
}

func TestCheckForgeryText(t *testing.T) {
	t.Run("forgery tokens flagged", func(t *testing.T) {
		findings := checkForgeryText(domain.CandidateSubmission{
			OCRText: "This is a PHOTOCOPY of the original certificate",
		})
		require.Len(t, findings, 1)
		require.Equal(t, domain.AnomalyForgeryIndicator, findings[0].Type)
		require.Contains(t, findings[0].Description, "photocopy")
	})

	t.Run("clean text passes", func(t *testing.T) {
		require.Empty(t, checkForgeryText(domain.CandidateSubmission{
			OCRText: "Bachelor of Technology awarded to Rahul Sharma",
		}))
	})

	t.Run("no text is silent", func(t *testing.T) {
		require.Empty(t, checkForgeryText(domain.CandidateSubmission{}))
	})
}

func TestHasSequentialRun(t *testing.T) {
	require.True(t, hasSequentialRun([]int{4, 5, 6}, 3))
	require.True(t, hasSequentialRun([]int{9, 8, 7, 2}, 3))
	require.False(t, hasSequentialRun([]int{1, 3, 5, 7}, 3))
	require.False(t, hasSequentialRun([]int{1, 2}, 3))
}
