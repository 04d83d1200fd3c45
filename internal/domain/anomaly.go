package domain

import "sort"

// Severity ranks how damaging an anomaly finding is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// AnomalyType is the closed set of anomaly findings the detector can emit.
// Adding a type here means adding a rule; the compiler keeps switches honest.
type AnomalyType string

const (
	AnomalyImpossibleGrade      AnomalyType = "IMPOSSIBLE_GRADE"
	AnomalyGradeInconsistency   AnomalyType = "GRADE_INCONSISTENCY"
	AnomalySequentialCertNumber AnomalyType = "SEQUENTIAL_CERTIFICATE_NUMBER"
	AnomalySuspiciousName       AnomalyType = "SUSPICIOUS_NAME"
	AnomalyInvalidCharacters    AnomalyType = "INVALID_CHARACTERS"
	AnomalyFuturePassingYear    AnomalyType = "FUTURE_PASSING_YEAR"
	AnomalyFutureIssueDate      AnomalyType = "FUTURE_ISSUE_DATE"
	AnomalyCompletionAfterIssue AnomalyType = "COMPLETION_AFTER_ISSUE"
	AnomalyForgeryIndicator     AnomalyType = "FORGERY_INDICATOR"
	AnomalyStatisticalOutlier   AnomalyType = "STATISTICAL_OUTLIER_CGPA"
	AnomalyDuplicateCertificate AnomalyType = "DUPLICATE_CERTIFICATE"
	AnomalyBlacklistedEntity    AnomalyType = "BLACKLISTED_ENTITY"
)

// AnomalyFinding is a single rule or statistic violation detected on a
// certificate. Findings are pure data; persistence is the caller's concern.
type AnomalyFinding struct {
	Type        AnomalyType
	Severity    Severity
	Confidence  int // 0-100, how certain the rule is about this finding
	Description string
	RiskScore   int // 0-100, how damaging the finding is if real
	Priority    int // 1 = highest risk, assigned after sorting
}

// RankFindings orders findings by descending risk score and assigns each a
// priority rank starting at 1. Sorting is stable so equal-risk findings keep
// detection order.
func RankFindings(findings []AnomalyFinding) []AnomalyFinding {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].RiskScore > findings[j].RiskScore
	})
	for i := range findings {
		findings[i].Priority = i + 1
	}
	return findings
}

// HighestSeverity returns the most damaging severity present, or "" when the
// slice is empty.
func HighestSeverity(findings []AnomalyFinding) Severity {
	rank := map[Severity]int{
		SeverityLow:      1,
		SeverityMedium:   2,
		SeverityHigh:     3,
		SeverityCritical: 4,
	}
	var best Severity
	for _, f := range findings {
		if rank[f.Severity] > rank[best] {
			best = f.Severity
		}
	}
	return best
}
