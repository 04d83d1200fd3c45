package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckName identifies one of the five independent sub-checks.
type CheckName string

const (
	CheckRecordMatch CheckName = "recordMatch"
	CheckLedger      CheckName = "ledger"
	CheckAnomaly     CheckName = "anomalyDetection"
	CheckInstitution CheckName = "institution"
	CheckDuplicate   CheckName = "duplicate"
)

// CheckNames lists every sub-check in aggregation order.
var CheckNames = []CheckName{
	CheckRecordMatch,
	CheckLedger,
	CheckAnomaly,
	CheckInstitution,
	CheckDuplicate,
}

// CheckDetails is the typed per-check diagnostic payload. Each check produces
// its own concrete type instead of an open-ended map, so consumers get static
// shape guarantees while the orchestrator stays agnostic.
type CheckDetails interface {
	checkDetails()
}

// RecordMatchDetails carries the matcher's field-by-field breakdown.
type RecordMatchDetails struct {
	MatchedRecordID uuid.UUID
	Score           int
	FieldScores     map[string]float64
}

// LedgerDetails carries the digest comparison outcome.
type LedgerDetails struct {
	Digest          string
	StoredDigest    string
	Legacy          bool
	LedgerConfirmed bool
}

// AnomalyDetails carries the ranked findings behind the anomaly check.
type AnomalyDetails struct {
	Findings []AnomalyFinding
}

// InstitutionDetails carries the institution gate outcome.
type InstitutionDetails struct {
	InstitutionID uuid.UUID
	Found         bool
	Active        bool
	Verified      bool
}

// DuplicateDetails carries the IDs of colliding records.
type DuplicateDetails struct {
	Count     int
	RecordIDs []uuid.UUID
}

func (RecordMatchDetails) checkDetails() {}
func (LedgerDetails) checkDetails()      {}
func (AnomalyDetails) checkDetails()     {}
func (InstitutionDetails) checkDetails() {}
func (DuplicateDetails) checkDetails()   {}

// CheckResult is the immutable outcome of a single sub-check.
type CheckResult struct {
	Passed     bool
	Confidence int // 0-100
	Message    string
	Details    CheckDetails
}

// VerificationStatus tracks the orchestrator state machine.
type VerificationStatus string

const (
	VerificationReceived  VerificationStatus = "RECEIVED"
	VerificationChecking  VerificationStatus = "CHECKING"
	VerificationCompleted VerificationStatus = "COMPLETED"
	VerificationFailed    VerificationStatus = "FAILED"
)

// VerificationResult is the orchestrator's output: one weighted overall
// confidence, the per-check results, and the ranked anomaly findings.
// Created once per verification call and never mutated afterwards.
type VerificationResult struct {
	ID                uuid.UUID
	CertificateNumber string
	Status            VerificationStatus
	IsValid           bool
	OverallConfidence int // 0-100
	Checks            map[CheckName]CheckResult
	Findings          []AnomalyFinding
	FlaggedReasons    []string
	EvaluatedAt       time.Time
}
