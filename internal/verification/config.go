package verification

import "certiva/internal/domain"

// Weights distributes the overall confidence across the five sub-checks.
// They must sum to 1.0; aggregation divides by the actual sum to keep the
// result in [0,100] even if a deployment tunes them carelessly.
type Weights struct {
	RecordMatch float64
	Ledger      float64
	Anomaly     float64
	Institution float64
	Duplicate   float64
}

// Sum returns the total weight, used as the aggregation denominator.
func (w Weights) Sum() float64 {
	return w.RecordMatch + w.Ledger + w.Anomaly + w.Institution + w.Duplicate
}

// Config carries every tunable constant of the engine. All values are
// empirical calibration from the production rule set; deployments override
// them through configuration rather than editing code.
type Config struct {
	Weights Weights

	// ValidityThreshold is the minimum overall confidence for isValid.
	ValidityThreshold int

	// MatchThreshold is the minimum weighted field score to accept a
	// record match.
	MatchThreshold int

	// LegacyLedgerConfidence is awarded to legacy certificates that are
	// exempt from ledger presence.
	LegacyLedgerConfidence int

	// UntrustedInstitutionConfidence is awarded when the institution
	// exists but is not active and verified.
	UntrustedInstitutionConfidence int

	// CGPAToPercentageFactor converts CGPA to an expected percentage.
	// The 9.5 factor is a grading-board heuristic, not a universal truth.
	CGPAToPercentageFactor float64

	// GradeDeviationLimit is the allowed gap in percentage points between
	// the declared percentage and the CGPA-derived expectation.
	GradeDeviationLimit float64

	// StatisticalMinSample is the minimum number of verified records
	// before the institutional outlier check is meaningful.
	StatisticalMinSample int

	// StatisticalCGPADeviation is the CGPA distance from the institutional
	// mean beyond which a candidate is an outlier.
	StatisticalCGPADeviation float64

	// Deductions maps finding severity to the confidence deduction applied
	// when aggregating anomaly findings into one check confidence.
	Deductions map[domain.Severity]int
}

// DefaultConfig returns the production calibration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			RecordMatch: 0.4,
			Ledger:      0.2,
			Anomaly:     0.2,
			Institution: 0.1,
			Duplicate:   0.1,
		},
		ValidityThreshold:              75,
		MatchThreshold:                 80,
		LegacyLedgerConfidence:         60,
		UntrustedInstitutionConfidence: 20,
		CGPAToPercentageFactor:         9.5,
		GradeDeviationLimit:            20,
		StatisticalMinSample:           10,
		StatisticalCGPADeviation:       2.0,
		Deductions: map[domain.Severity]int{
			domain.SeverityCritical: 30,
			domain.SeverityHigh:     20,
			domain.SeverityMedium:   15,
			domain.SeverityLow:      5,
		},
	}
}

// deduction looks up the severity deduction, defaulting to the medium value
// so an unmapped severity never silently costs nothing.
func (c Config) deduction(s domain.Severity) int {
	if d, ok := c.Deductions[s]; ok {
		return d
	}
	return c.Deductions[domain.SeverityMedium]
}
