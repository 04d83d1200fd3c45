package verification

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"certiva/internal/domain"
)

// Pattern-based anomaly rules. Each rule is a pure function over the
// candidate submission: no I/O, no side effects, order-insensitive. The
// detector in anomaly.go runs the full battery and aggregates.

// placeholderNames are tokens that show up on fabricated certificates.
var placeholderNames = []string{
	"test", "testing", "dummy", "sample", "example", "fake",
	"john doe", "jane doe", "asdf", "qwerty", "abc", "xyz",
}

// forgeryTokens in OCR text indicate the scan is not an original document.
var forgeryTokens = []string{
	"photocopy", "duplicate", "not original", "reprint", "specimen",
	"copy of certificate", "true copy",
}

var validNameChars = regexp.MustCompile(`^[\p{L} .'\-]+$`)

// checkGradeRange flags grades that cannot exist on any certificate.
func checkGradeRange(c domain.CandidateSubmission) []domain.AnomalyFinding {
	var findings []domain.AnomalyFinding
	if c.CGPA != nil && (*c.CGPA > 10 || *c.CGPA < 0) {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyImpossibleGrade,
			Severity:    domain.SeverityCritical,
			Confidence:  99,
			Description: fmt.Sprintf("CGPA %.2f is outside the possible range [0, 10]", *c.CGPA),
			RiskScore:   95,
		})
	}
	if c.Percentage != nil && (*c.Percentage > 100 || *c.Percentage < 0) {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyImpossibleGrade,
			Severity:    domain.SeverityCritical,
			Confidence:  99,
			Description: fmt.Sprintf("percentage %.2f is outside the possible range [0, 100]", *c.Percentage),
			RiskScore:   95,
		})
	}
	return findings
}

// checkGradeConsistency compares the declared percentage against the
// CGPA-derived expectation. The conversion factor is a grading-board
// heuristic carried in config, not a constant of nature.
func (c Config) checkGradeConsistency(sub domain.CandidateSubmission) []domain.AnomalyFinding {
	if sub.CGPA == nil || sub.Percentage == nil {
		return nil
	}
	// Impossible values are the range rule's job; scoring consistency on
	// top of them would double-count.
	if *sub.CGPA > 10 || *sub.CGPA < 0 || *sub.Percentage > 100 || *sub.Percentage < 0 {
		return nil
	}
	expected := *sub.CGPA * c.CGPAToPercentageFactor
	deviation := expected - *sub.Percentage
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= c.GradeDeviationLimit {
		return nil
	}

	severity := domain.SeverityMedium
	risk := 55
	if deviation > 2*c.GradeDeviationLimit {
		severity = domain.SeverityHigh
		risk = 75
	}
	return []domain.AnomalyFinding{{
		Type:     domain.AnomalyGradeInconsistency,
		Severity: severity,
		// Confidence stays moderate: grading scales vary between boards.
		Confidence: 70,
		Description: fmt.Sprintf("percentage %.1f deviates %.1f points from CGPA-derived expectation %.1f",
			*sub.Percentage, deviation, expected),
		RiskScore: risk,
	}}
}

// checkCertificateNumber flags numbers that look machine-generated:
// all-repeated digits or runs of 3+ consecutive ascending/descending digits.
func checkCertificateNumber(c domain.CandidateSubmission) []domain.AnomalyFinding {
	digits := digitsOf(c.CertificateNumber)
	if len(digits) == 0 {
		return nil
	}

	if len(digits) >= 4 && allSameDigit(digits) {
		return []domain.AnomalyFinding{{
			Type:        domain.AnomalySequentialCertNumber,
			Severity:    domain.SeverityHigh,
			Confidence:  90,
			Description: fmt.Sprintf("certificate number %q is an all-repeated-digit pattern", c.CertificateNumber),
			RiskScore:   70,
		}}
	}

	if hasSequentialRun(digits, 3) {
		return []domain.AnomalyFinding{{
			Type:        domain.AnomalySequentialCertNumber,
			Severity:    domain.SeverityMedium,
			Confidence:  75,
			Description: fmt.Sprintf("certificate number %q contains a sequential digit run", c.CertificateNumber),
			RiskScore:   55,
		}}
	}
	return nil
}

// checkStudentName flags placeholder names and names with characters outside
// letters, spaces, and common name punctuation.
func checkStudentName(c domain.CandidateSubmission) []domain.AnomalyFinding {
	name := strings.TrimSpace(strings.ToLower(c.StudentName))
	if name == "" {
		return nil
	}

	var findings []domain.AnomalyFinding
	for _, placeholder := range placeholderNames {
		if name == placeholder {
			findings = append(findings, domain.AnomalyFinding{
				Type:        domain.AnomalySuspiciousName,
				Severity:    domain.SeverityHigh,
				Confidence:  85,
				Description: fmt.Sprintf("student name %q matches a known placeholder", c.StudentName),
				RiskScore:   75,
			})
			break
		}
	}

	if !validNameChars.MatchString(strings.TrimSpace(c.StudentName)) {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyInvalidCharacters,
			Severity:    domain.SeverityMedium,
			Confidence:  80,
			Description: fmt.Sprintf("student name %q contains characters outside letters, spaces, and punctuation", c.StudentName),
			RiskScore:   50,
		})
	}
	return findings
}

// checkTemporal flags passing years or issue dates in the future and
// completion dates after issue. now comes from the request context so tests
// stay deterministic.
func checkTemporal(c domain.CandidateSubmission, now time.Time) []domain.AnomalyFinding {
	var findings []domain.AnomalyFinding

	if c.PassingYear > now.Year() {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyFuturePassingYear,
			Severity:    domain.SeverityCritical,
			Confidence:  99,
			Description: fmt.Sprintf("passing year %d is in the future", c.PassingYear),
			RiskScore:   90,
		})
	}

	if c.DateOfIssue != nil && c.DateOfIssue.After(now) {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyFutureIssueDate,
			Severity:    domain.SeverityCritical,
			Confidence:  99,
			Description: fmt.Sprintf("issue date %s is in the future", c.DateOfIssue.Format("2006-01-02")),
			RiskScore:   90,
		})
	}

	if c.DateOfIssue != nil && c.CompletionDate != nil && c.CompletionDate.After(*c.DateOfIssue) {
		findings = append(findings, domain.AnomalyFinding{
			Type:        domain.AnomalyCompletionAfterIssue,
			Severity:    domain.SeverityMedium,
			Confidence:  90,
			Description: "course completion date is after the certificate issue date",
			RiskScore:   55,
		})
	}
	return findings
}

// checkForgeryText scans the raw OCR text for tokens that indicate a
// non-original document.
func checkForgeryText(c domain.CandidateSubmission) []domain.AnomalyFinding {
	if c.OCRText == "" {
		return nil
	}
	text := strings.ToLower(c.OCRText)

	var matched []string
	for _, token := range forgeryTokens {
		if strings.Contains(text, token) {
			matched = append(matched, token)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return []domain.AnomalyFinding{{
		Type:        domain.AnomalyForgeryIndicator,
		Severity:    domain.SeverityHigh,
		Confidence:  80,
		Description: fmt.Sprintf("document text contains forgery indicators: %s", strings.Join(matched, ", ")),
		RiskScore:   78,
	}}
}

func digitsOf(s string) []int {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	return digits
}

func allSameDigit(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

// hasSequentialRun reports whether digits contain a strictly ascending or
// descending run of at least n consecutive values (e.g. 4-5-6 or 9-8-7).
func hasSequentialRun(digits []int, n int) bool {
	if len(digits) < n {
		return false
	}
	asc, desc := 1, 1
	for i := 1; i < len(digits); i++ {
		if digits[i] == digits[i-1]+1 {
			asc++
		} else {
			asc = 1
		}
		if digits[i] == digits[i-1]-1 {
			desc++
		} else {
			desc = 1
		}
		if asc >= n || desc >= n {
			return true
		}
	}
	return false
}
