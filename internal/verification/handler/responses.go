package handler

import (
	"time"

	"certiva/internal/domain"
)

// CheckResponse is the wire shape of one sub-check result.
type CheckResponse struct {
	Passed     bool                `json:"passed"`
	Confidence int                 `json:"confidence"`
	Message    string              `json:"message"`
	Details    domain.CheckDetails `json:"details,omitempty"`
}

// FindingResponse is the wire shape of one anomaly finding.
type FindingResponse struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Confidence  int    `json:"confidence"`
	Description string `json:"description"`
	RiskScore   int    `json:"riskScore"`
	Priority    int    `json:"priority"`
}

// VerifyResponse is the wire shape of a verification result.
type VerifyResponse struct {
	ID                string                   `json:"id"`
	CertificateNumber string                   `json:"certificateNumber,omitempty"`
	Status            string                   `json:"status"`
	IsValid           bool                     `json:"isValid"`
	OverallConfidence int                      `json:"overallConfidence"`
	Checks            map[string]CheckResponse `json:"checks"`
	Findings          []FindingResponse        `json:"findings"`
	FlaggedReasons    []string                 `json:"flaggedReasons"`
	EvaluatedAt       time.Time                `json:"evaluatedAt"`
}

// FromResult converts a domain result into its wire representation.
func FromResult(result *domain.VerificationResult) VerifyResponse {
	checks := make(map[string]CheckResponse, len(result.Checks))
	for name, check := range result.Checks {
		checks[string(name)] = CheckResponse{
			Passed:     check.Passed,
			Confidence: check.Confidence,
			Message:    check.Message,
			Details:    check.Details,
		}
	}

	findings := make([]FindingResponse, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, FindingResponse{
			Type:        string(f.Type),
			Severity:    string(f.Severity),
			Confidence:  f.Confidence,
			Description: f.Description,
			RiskScore:   f.RiskScore,
			Priority:    f.Priority,
		})
	}

	return VerifyResponse{
		ID:                result.ID.String(),
		CertificateNumber: result.CertificateNumber,
		Status:            string(result.Status),
		IsValid:           result.IsValid,
		OverallConfidence: result.OverallConfidence,
		Checks:            checks,
		Findings:          findings,
		FlaggedReasons:    result.FlaggedReasons,
		EvaluatedAt:       result.EvaluatedAt,
	}
}
