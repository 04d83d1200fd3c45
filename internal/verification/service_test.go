package verification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"certiva/internal/audit"
	certstore "certiva/internal/certificate/store"
	"certiva/internal/domain"
	institutionstore "certiva/internal/institution/store"
	"certiva/internal/verification/ports"
	"certiva/pkg/requestcontext"
)

// stubLedger answers Digest with a fixed fingerprint and Validate with a
// canned proof or error.
type stubLedger struct {
	digest string
	proof  *ports.LedgerProof
	err    error
}

func (l stubLedger) Digest(*domain.CertificateRecord) string { return l.digest }

func (l stubLedger) Validate(context.Context, string) (*ports.LedgerProof, error) {
	return l.proof, l.err
}

// failingRecords simulates an unreachable record database.
type failingRecords struct{}

var errStoreDown = fmt.Errorf("store unreachable")

func (failingRecords) FindByCertificateNumber(context.Context, string) (*domain.CertificateRecord, error) {
	return nil, errStoreDown
}

func (failingRecords) FindByNameRollCourseYear(context.Context, string, string, string, int, uuid.UUID) (*domain.CertificateRecord, error) {
	return nil, errStoreDown
}

func (failingRecords) FindDuplicates(context.Context, domain.CandidateSubmission, uuid.UUID) ([]domain.CertificateRecord, error) {
	return nil, errStoreDown
}

func (failingRecords) AggregateStats(context.Context, uuid.UUID, string) (*ports.AggregateStats, error) {
	return nil, errStoreDown
}

func (failingRecords) FindBlacklistEntry(context.Context, domain.BlacklistType, string) (*domain.BlacklistEntry, error) {
	return nil, errStoreDown
}

// failingInstitutions simulates an unreachable institution registry.
type failingInstitutions struct{}

func (failingInstitutions) FindByID(context.Context, uuid.UUID) (*domain.Institution, error) {
	return nil, errStoreDown
}

type VerificationServiceSuite struct {
	suite.Suite

	ctx           context.Context
	records       *certstore.InMemoryStore
	institutions  *institutionstore.InMemoryStore
	institutionID uuid.UUID
	record        domain.CertificateRecord
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	// Pin the clock so temporal rules behave the same on every run.
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))

	s.records = certstore.NewInMemoryStore()
	s.institutions = institutionstore.NewInMemoryStore()

	s.institutionID = uuid.New()
	s.Require().NoError(s.institutions.Save(s.ctx, domain.Institution{
		ID:       s.institutionID,
		Name:     "National Institute of Technology",
		Active:   true,
		Verified: true,
	}))

	s.record = domain.CertificateRecord{
		ID:                uuid.New(),
		CertificateNumber: "CERT-2021-4817",
		StudentName:       "Rahul Sharma",
		RollNumber:        "CS-2017-042",
		Course:            "B.Tech Computer Science",
		PassingYear:       2021,
		Grade:             "A",
		CGPA:              fp(8.4),
		DateOfIssue:       time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC),
		InstitutionID:     s.institutionID,
		LedgerDigest:      "digest-a",
		Status:            domain.CertificateVerified,
	}
	s.Require().NoError(s.records.Save(s.ctx, s.record))
}

func (s *VerificationServiceSuite) service(ledger ports.LedgerClient, opts ...Option) *Service {
	return NewService(s.records, s.institutions, ledger, opts...)
}

func (s *VerificationServiceSuite) confirmingLedger() ports.LedgerClient {
	return stubLedger{digest: "digest-a", proof: &ports.LedgerProof{Exists: true}}
}

func (s *VerificationServiceSuite) cleanCandidate() domain.CandidateSubmission {
	return domain.CandidateSubmission{
		CertificateNumber: s.record.CertificateNumber,
		StudentName:       s.record.StudentName,
		RollNumber:        s.record.RollNumber,
		Course:            s.record.Course,
		PassingYear:       s.record.PassingYear,
		Grade:             s.record.Grade,
		CGPA:              fp(8.4),
		DateOfIssue:       tp(s.record.DateOfIssue),
		InstitutionID:     s.institutionID,
	}
}

func (s *VerificationServiceSuite) TestCleanSubmission() {
	svc := s.service(s.confirmingLedger())

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	s.Equal(domain.VerificationCompleted, result.Status)
	s.True(result.IsValid)
	s.Equal(100, result.OverallConfidence)
	s.Empty(result.FlaggedReasons)
	s.Empty(result.Findings)
	s.Len(result.Checks, 5)
	for name, check := range result.Checks {
		s.True(check.Passed, "check %s", name)
	}
	s.NotEqual(uuid.Nil, result.ID)
	s.Equal(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), result.EvaluatedAt)
}

func (s *VerificationServiceSuite) TestImpossibleGrade() {
	svc := s.service(s.confirmingLedger())

	candidate := s.cleanCandidate()
	candidate.CGPA = fp(12)

	result, err := svc.Verify(s.ctx, candidate)
	s.Require().NoError(err)

	s.Equal(domain.VerificationCompleted, result.Status)

	anomaly := result.Checks[domain.CheckAnomaly]
	s.False(anomaly.Passed)
	s.Equal(70, anomaly.Confidence) // 100 minus the critical deduction

	s.Require().NotEmpty(result.Findings)
	s.Equal(domain.AnomalyImpossibleGrade, result.Findings[0].Type)
	s.Equal(domain.SeverityCritical, result.Findings[0].Severity)
	s.Equal(1, result.Findings[0].Priority)
	s.Contains(result.FlaggedReasons, anomaly.Message)
}

func (s *VerificationServiceSuite) TestMissingDigestNonLegacy() {
	s.record.LedgerDigest = ""
	s.record.IsLegacy = false
	s.Require().NoError(s.records.Save(s.ctx, s.record))

	svc := s.service(stubLedger{digest: "derived"})

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	ledgerCheck := result.Checks[domain.CheckLedger]
	s.False(ledgerCheck.Passed)
	s.Equal(0, ledgerCheck.Confidence)
	s.Contains(result.FlaggedReasons, "missing digest for non-legacy certificate")

	// 0.4*100 + 0.2*0 + 0.2*100 + 0.1*100 + 0.1*100 = 80
	s.Equal(80, result.OverallConfidence)
	s.True(result.IsValid)
}

func (s *VerificationServiceSuite) TestLegacyCertificateExemption() {
	s.record.LedgerDigest = ""
	s.record.IsLegacy = true
	s.Require().NoError(s.records.Save(s.ctx, s.record))

	svc := s.service(stubLedger{digest: "derived"})

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	ledgerCheck := result.Checks[domain.CheckLedger]
	s.True(ledgerCheck.Passed)
	s.Equal(60, ledgerCheck.Confidence)

	details, ok := ledgerCheck.Details.(domain.LedgerDetails)
	s.Require().True(ok)
	s.True(details.Legacy)
	s.NotEmpty(details.Digest)

	// 0.4*100 + 0.2*60 + 0.2*100 + 0.1*100 + 0.1*100 = 92
	s.Equal(92, result.OverallConfidence)
	s.True(result.IsValid)
}

func (s *VerificationServiceSuite) TestLedgerMismatch() {
	// Derived digest disagrees with the stored one: tampering evidence.
	svc := s.service(stubLedger{digest: "digest-tampered", proof: &ports.LedgerProof{Exists: true}})

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	ledgerCheck := result.Checks[domain.CheckLedger]
	s.False(ledgerCheck.Passed)
	s.Equal(0, ledgerCheck.Confidence)
	s.Contains(ledgerCheck.Message, "tampering")
	s.Equal(domain.VerificationCompleted, result.Status)
}

func (s *VerificationServiceSuite) TestDuplicateDetection() {
	svc := s.service(s.confirmingLedger())

	// Same student tuple under a certificate number that is not on file.
	candidate := s.cleanCandidate()
	candidate.CertificateNumber = "CERT-2021-9999"

	result, err := svc.Verify(s.ctx, candidate)
	s.Require().NoError(err)

	dupCheck := result.Checks[domain.CheckDuplicate]
	s.False(dupCheck.Passed)
	details, ok := dupCheck.Details.(domain.DuplicateDetails)
	s.Require().True(ok)
	s.Equal(1, details.Count)
	s.Equal([]uuid.UUID{s.record.ID}, details.RecordIDs)

	var dupFinding *domain.AnomalyFinding
	for i := range result.Findings {
		if result.Findings[i].Type == domain.AnomalyDuplicateCertificate {
			dupFinding = &result.Findings[i]
		}
	}
	s.Require().NotNil(dupFinding)
	s.Equal(domain.SeverityCritical, dupFinding.Severity)
}

func (s *VerificationServiceSuite) TestBlacklistedCertificate() {
	s.Require().NoError(s.records.AddBlacklistEntry(s.ctx, domain.BlacklistEntry{
		Type:       domain.BlacklistCertificateNumber,
		Identifier: s.record.CertificateNumber,
		Reason:     "reported forged by issuing institution",
	}))

	svc := s.service(s.confirmingLedger())

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	var found bool
	for _, f := range result.Findings {
		if f.Type == domain.AnomalyBlacklistedEntity {
			found = true
			s.Equal(domain.SeverityCritical, f.Severity)
			s.Contains(f.Description, "reported forged")
		}
	}
	s.True(found)
	s.False(result.Checks[domain.CheckAnomaly].Passed)
}

func (s *VerificationServiceSuite) TestUntrustedInstitution() {
	inactiveID := uuid.New()
	s.Require().NoError(s.institutions.Save(s.ctx, domain.Institution{
		ID:       inactiveID,
		Name:     "Suspended College",
		Active:   false,
		Verified: true,
	}))
	s.record.InstitutionID = inactiveID
	s.Require().NoError(s.records.Save(s.ctx, s.record))

	svc := s.service(s.confirmingLedger())
	candidate := s.cleanCandidate()
	candidate.InstitutionID = inactiveID

	result, err := svc.Verify(s.ctx, candidate)
	s.Require().NoError(err)

	instCheck := result.Checks[domain.CheckInstitution]
	s.False(instCheck.Passed)
	s.Equal(20, instCheck.Confidence)
}

func (s *VerificationServiceSuite) TestNoMatchingRecord() {
	svc := s.service(s.confirmingLedger())

	result, err := svc.Verify(s.ctx, domain.CandidateSubmission{
		CertificateNumber: "CERT-UNKNOWN-1",
		StudentName:       "Nobody Registered",
		InstitutionID:     s.institutionID,
	})
	s.Require().NoError(err)

	matchCheck := result.Checks[domain.CheckRecordMatch]
	s.False(matchCheck.Passed)
	s.Equal(0, matchCheck.Confidence)
	s.Equal("no matching record found in institutional database", matchCheck.Message)
	s.Equal(domain.VerificationCompleted, result.Status)
}

func (s *VerificationServiceSuite) TestNoIdentity() {
	svc := s.service(s.confirmingLedger())

	result, err := svc.Verify(s.ctx, domain.CandidateSubmission{PassingYear: 2021})
	s.Require().NoError(err)

	s.Equal(domain.VerificationFailed, result.Status)
	s.False(result.IsValid)
	s.Empty(result.Checks)
	s.Require().Len(result.FlaggedReasons, 1)
	s.Contains(result.FlaggedReasons[0], "neither a certificate number nor a student name")
}

func (s *VerificationServiceSuite) TestCancellation() {
	svc := s.service(s.confirmingLedger())

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	result, err := svc.Verify(ctx, s.cleanCandidate())
	s.Require().NoError(err)

	s.Equal(domain.VerificationFailed, result.Status)
	s.False(result.IsValid)
	s.Contains(result.FlaggedReasons, "verification cancelled before all checks completed")
}

func (s *VerificationServiceSuite) TestCollaboratorFailureIsolation() {
	// The ledger is down; every other collaborator answers.
	svc := s.service(stubLedger{digest: "digest-a", err: fmt.Errorf("ledger timeout")})

	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)

	s.Equal(domain.VerificationCompleted, result.Status)

	ledgerCheck := result.Checks[domain.CheckLedger]
	s.False(ledgerCheck.Passed)
	s.Contains(ledgerCheck.Message, "unavailable")

	// The other four checks are untouched by the outage.
	s.True(result.Checks[domain.CheckRecordMatch].Passed)
	s.True(result.Checks[domain.CheckAnomaly].Passed)
	s.True(result.Checks[domain.CheckInstitution].Passed)
	s.True(result.Checks[domain.CheckDuplicate].Passed)
	s.Equal(80, result.OverallConfidence)
}

func (s *VerificationServiceSuite) TestAllCollaboratorsDown() {
	svc := NewService(failingRecords{}, failingInstitutions{},
		stubLedger{digest: "x", err: fmt.Errorf("ledger down")})

	result, err := svc.Verify(s.ctx, domain.CandidateSubmission{
		CertificateNumber: "CERT-2021-4817",
		StudentName:       "Rahul Sharma",
		InstitutionID:     uuid.New(),
	})
	s.Require().NoError(err)

	s.Equal(domain.VerificationFailed, result.Status)
	s.False(result.IsValid)
	s.Len(result.Checks, 5)
	for name, check := range result.Checks {
		s.False(check.Passed, "check %s", name)
	}
}

func (s *VerificationServiceSuite) TestDeterministicAggregation() {
	svc := s.service(s.confirmingLedger())

	candidate := s.cleanCandidate()
	candidate.CGPA = fp(12)

	first, err := svc.Verify(s.ctx, candidate)
	s.Require().NoError(err)
	second, err := svc.Verify(s.ctx, candidate)
	s.Require().NoError(err)

	s.Equal(first.OverallConfidence, second.OverallConfidence)
	s.Equal(first.IsValid, second.IsValid)
	s.Equal(first.FlaggedReasons, second.FlaggedReasons)
	s.Equal(first.Findings, second.Findings)
}

func (s *VerificationServiceSuite) TestWeightConservation() {
	// Every check at confidence 100 must aggregate to exactly 100, whatever
	// the weight split.
	cfg := DefaultConfig()
	s.InDelta(1.0, cfg.Weights.Sum(), 1e-9)

	svc := s.service(s.confirmingLedger(), WithConfig(cfg))
	result, err := svc.Verify(s.ctx, s.cleanCandidate())
	s.Require().NoError(err)
	s.Equal(100, result.OverallConfidence)
}

func (s *VerificationServiceSuite) TestAuditTrail() {
	sink := audit.NewInMemoryStore()
	svc := s.service(s.confirmingLedger(), WithAudit(audit.NewPublisher(sink)))

	ctx := requestcontext.WithRequestID(s.ctx, "req-123")
	ctx = requestcontext.WithCallerID(ctx, "employer-acme")

	result, err := svc.Verify(ctx, s.cleanCandidate())
	s.Require().NoError(err)

	events := sink.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionVerificationCompleted, events[0].Action)
	s.Equal(result.ID, events[0].VerificationID)
	s.Equal(result.OverallConfidence, events[0].Confidence)
	s.True(events[0].Valid)
	s.Equal("req-123", events[0].RequestID)
	s.Equal("employer-acme", events[0].CallerID)
}
