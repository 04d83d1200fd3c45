package handler

import (
	"time"

	"github.com/google/uuid"

	"certiva/internal/domain"
	dErrors "certiva/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// VerifyRequest is the wire shape of a verification submission. Every field
// is optional on the wire; the engine decides whether enough identity is
// present to run checks.
type VerifyRequest struct {
	CertificateNumber string   `json:"certificateNumber"`
	StudentName       string   `json:"studentName"`
	RollNumber        string   `json:"rollNumber"`
	Course            string   `json:"course"`
	Branch            string   `json:"branch"`
	PassingYear       int      `json:"passingYear"`
	Grade             string   `json:"grade"`
	CGPA              *float64 `json:"cgpa"`
	Percentage        *float64 `json:"percentage"`
	DateOfIssue       string   `json:"dateOfIssue"`
	CompletionDate    string   `json:"completionDate"`
	InstitutionID     string   `json:"institutionId"`
	OCRText           string   `json:"ocrText"`
	OCRConfidence     float64  `json:"ocrConfidence"`
}

// ToDomain converts the wire request into a candidate submission. Only
// syntactic problems (unparseable dates, malformed UUIDs) are rejected here;
// semantic validation is the engine's job.
func (r VerifyRequest) ToDomain() (domain.CandidateSubmission, error) {
	candidate := domain.CandidateSubmission{
		CertificateNumber: r.CertificateNumber,
		StudentName:       r.StudentName,
		RollNumber:        r.RollNumber,
		Course:            r.Course,
		Branch:            r.Branch,
		PassingYear:       r.PassingYear,
		Grade:             r.Grade,
		CGPA:              r.CGPA,
		Percentage:        r.Percentage,
		OCRText:           r.OCRText,
		OCRConfidence:     r.OCRConfidence,
	}

	if r.InstitutionID != "" {
		id, err := uuid.Parse(r.InstitutionID)
		if err != nil {
			return domain.CandidateSubmission{}, dErrors.Wrap(dErrors.CodeBadRequest, "invalid institutionId", err)
		}
		candidate.InstitutionID = id
	}
	if r.DateOfIssue != "" {
		t, err := time.Parse(dateLayout, r.DateOfIssue)
		if err != nil {
			return domain.CandidateSubmission{}, dErrors.Wrap(dErrors.CodeBadRequest, "invalid dateOfIssue, expected YYYY-MM-DD", err)
		}
		candidate.DateOfIssue = &t
	}
	if r.CompletionDate != "" {
		t, err := time.Parse(dateLayout, r.CompletionDate)
		if err != nil {
			return domain.CandidateSubmission{}, dErrors.Wrap(dErrors.CodeBadRequest, "invalid completionDate, expected YYYY-MM-DD", err)
		}
		candidate.CompletionDate = &t
	}
	return candidate, nil
}
