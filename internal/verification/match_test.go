package verification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"certiva/internal/domain"
)

func matchedRecord() *domain.CertificateRecord {
	return &domain.CertificateRecord{
		ID:                uuid.New(),
		CertificateNumber: "CERT-2021-4817",
		StudentName:       "Rahul Sharma",
		RollNumber:        "CS-2017-042",
		Course:            "B.Tech Computer Science",
		PassingYear:       2021,
		Grade:             "A",
		CGPA:              fp(8.4),
		DateOfIssue:       time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC),
		InstitutionID:     uuid.New(),
	}
}

func TestScoreMatchExact(t *testing.T) {
	record := matchedRecord()
	candidate := domain.CandidateSubmission{
		CertificateNumber: record.CertificateNumber,
		StudentName:       record.StudentName,
		RollNumber:        record.RollNumber,
		Course:            record.Course,
		PassingYear:       record.PassingYear,
		Grade:             record.Grade,
		CGPA:              fp(8.4),
		DateOfIssue:       tp(record.DateOfIssue),
	}

	score, fieldScores := scoreMatch(candidate, record)
	require.Equal(t, 100, score)
	for field, fs := range fieldScores {
		require.InDelta(t, 1.0, fs, 1e-9, "field %s", field)
	}
}

func TestScoreMatchCaseInsensitive(t *testing.T) {
	record := matchedRecord()
	candidate := domain.CandidateSubmission{
		CertificateNumber: "cert-2021-4817",
		StudentName:       "RAHUL SHARMA",
	}

	score, _ := scoreMatch(candidate, record)
	require.Equal(t, 100, score)
}

func TestScoreMatchSparseCandidate(t *testing.T) {
	// Only declared fields enter the denominator: a name-only candidate
	// that matches perfectly still scores 100.
	record := matchedRecord()
	candidate := domain.CandidateSubmission{StudentName: record.StudentName}

	score, fieldScores := scoreMatch(candidate, record)
	require.Equal(t, 100, score)
	require.Len(t, fieldScores, 1)
	require.Contains(t, fieldScores, "studentName")
}

func TestScoreMatchFuzzyName(t *testing.T) {
	record := matchedRecord()
	candidate := domain.CandidateSubmission{
		CertificateNumber: record.CertificateNumber,
		StudentName:       "Rahul Sharm", // OCR dropped the trailing letter
		PassingYear:       record.PassingYear,
	}

	score, fieldScores := scoreMatch(candidate, record)
	require.Greater(t, fieldScores["studentName"], 0.9)
	require.Less(t, fieldScores["studentName"], 1.0)
	// 25*0.916 + 20*1 + 10*1 over 55 ≈ 96.
	require.GreaterOrEqual(t, score, 90)
	require.Less(t, score, 100)
}

func TestScoreMatchMismatchedFields(t *testing.T) {
	record := matchedRecord()
	candidate := domain.CandidateSubmission{
		CertificateNumber: record.CertificateNumber,
		StudentName:       "Completely Different Person",
		PassingYear:       2019,
	}

	score, fieldScores := scoreMatch(candidate, record)
	require.Equal(t, 0.0, fieldScores["passingYear"])
	require.Less(t, score, 60)
}

func TestScoreMatchNoOverlap(t *testing.T) {
	record := &domain.CertificateRecord{CertificateNumber: "CERT-1"}
	candidate := domain.CandidateSubmission{StudentName: "Rahul Sharma"}

	score, fieldScores := scoreMatch(candidate, record)
	require.Equal(t, 0, score)
	require.Empty(t, fieldScores)
}

func TestIssueDateScore(t *testing.T) {
	base := time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want float64
	}{
		{name: "same day", a: base, b: base, want: 1.0},
		{name: "same day different hours", a: base.Add(23 * time.Hour), b: base, want: 1.0},
		{name: "within slack window", a: base.AddDate(0, 0, 7), b: base, want: 0.8},
		{name: "slack is symmetric", a: base, b: base.AddDate(0, 0, 3), want: 0.8},
		{name: "outside slack window", a: base.AddDate(0, 0, 8), b: base, want: 0.0},
		{name: "different month", a: base.AddDate(0, 1, 0), b: base, want: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, issueDateScore(tt.a, tt.b), 1e-9)
		})
	}
}
