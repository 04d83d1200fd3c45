package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CertificateStatus is the lifecycle status of a stored certificate record.
type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "PENDING"
	CertificateVerified CertificateStatus = "VERIFIED"
	CertificateRejected CertificateStatus = "REJECTED"
	CertificateFlagged  CertificateStatus = "FLAGGED"
)

// MinPassingYear bounds the earliest acceptable passing year for a record.
const MinPassingYear = 1950

// CertificateRecord is the canonical stored certificate entity. The
// certificate number is the authoritative unique key; most other fields are
// optional because institutions upload records with varying completeness.
type CertificateRecord struct {
	ID                 uuid.UUID
	CertificateNumber  string
	StudentName        string
	FatherName         string
	MotherName         string
	RollNumber         string
	RegistrationNumber string
	Course             string
	Branch             string
	PassingYear        int
	Grade              string
	CGPA               *float64
	Percentage         *float64
	DateOfIssue        time.Time
	CompletionDate     *time.Time
	InstitutionID      uuid.UUID
	IsLegacy           bool
	LedgerDigest       string
	Status             CertificateStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate enforces the record invariants at upload time. Anomaly detection
// re-checks the same bounds on candidate submissions, which arrive unvalidated.
func (r *CertificateRecord) Validate(now time.Time) error {
	if r.CertificateNumber == "" {
		return fmt.Errorf("certificate number is required")
	}
	if r.StudentName == "" {
		return fmt.Errorf("student name is required")
	}
	if r.PassingYear < MinPassingYear || r.PassingYear > now.Year() {
		return fmt.Errorf("passing year %d outside [%d, %d]", r.PassingYear, MinPassingYear, now.Year())
	}
	if r.CGPA != nil && (*r.CGPA < 0 || *r.CGPA > 10) {
		return fmt.Errorf("cgpa %.2f outside [0, 10]", *r.CGPA)
	}
	if r.Percentage != nil && (*r.Percentage < 0 || *r.Percentage > 100) {
		return fmt.Errorf("percentage %.2f outside [0, 100]", *r.Percentage)
	}
	return nil
}

// CandidateSubmission is the ephemeral input to the verification engine: a
// set of extracted or declared fields, all optional and noisy, plus the OCR
// confidence reported by the upstream extraction pipeline.
type CandidateSubmission struct {
	CertificateNumber string
	StudentName       string
	RollNumber        string
	Course            string
	Branch            string
	PassingYear       int
	Grade             string
	CGPA              *float64
	Percentage        *float64
	DateOfIssue       *time.Time
	CompletionDate    *time.Time
	InstitutionID     uuid.UUID
	OCRText           string
	OCRConfidence     float64
}

// HasIdentity reports whether the submission carries enough to even attempt a
// lookup. Without a certificate number or a student name no check can run.
func (c CandidateSubmission) HasIdentity() bool {
	return c.CertificateNumber != "" || c.StudentName != ""
}
