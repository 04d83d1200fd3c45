// Package verification implements the certificate verification and anomaly
// engine: five independent checks fanned out per submission, folded into one
// weighted confidence score and validity decision.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"certiva/internal/domain"
	"certiva/internal/verification/metrics"
	"certiva/internal/verification/ports"
	"certiva/pkg/requestcontext"
)

// Service is the verification orchestrator. It owns no mutable state beyond
// its injected collaborators; every Verify call is an independent,
// request-scoped computation.
type Service struct {
	records      ports.RecordRepository
	institutions ports.InstitutionRepository
	ledger       ports.LedgerClient
	audit        ports.AuditPublisher
	cfg          Config
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit sets the audit publisher. Audit failures are logged, never
// propagated: a verification result always reaches the caller.
func WithAudit(publisher ports.AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithConfig overrides the default engine calibration.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// NewService constructs the orchestrator with its collaborators injected.
func NewService(records ports.RecordRepository, institutions ports.InstitutionRepository, ledger ports.LedgerClient, opts ...Option) *Service {
	s := &Service{
		records:      records,
		institutions: institutions,
		ledger:       ledger,
		cfg:          DefaultConfig(),
		logger:       slog.Default(),
		tracer:       otel.Tracer("certiva/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkOutcome pairs a check result with whether the failure came from an
// unreachable collaborator rather than from the certificate itself.
type checkOutcome struct {
	result   domain.CheckResult
	infraErr bool
}

// Verify runs the five sub-checks over the candidate and aggregates them
// into a VerificationResult. The caller always receives a result: input and
// collaborator errors degrade the result, they never surface as a Go error
// from a downstream check. The only hard ordering requirement is the join
// before aggregation; the checks themselves run concurrently.
func (s *Service) Verify(ctx context.Context, candidate domain.CandidateSubmission) (*domain.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.verify")
	defer span.End()
	start := time.Now()

	result := &domain.VerificationResult{
		ID:                uuid.New(),
		CertificateNumber: candidate.CertificateNumber,
		Status:            domain.VerificationReceived,
		Checks:            make(map[domain.CheckName]domain.CheckResult),
		FlaggedReasons:    []string{},
		EvaluatedAt:       requestcontext.Now(ctx),
	}

	if !candidate.HasIdentity() {
		result.Status = domain.VerificationFailed
		result.FlaggedReasons = append(result.FlaggedReasons,
			"submission carries neither a certificate number nor a student name")
		s.finish(ctx, result, start)
		return result, nil
	}

	result.Status = domain.VerificationChecking
	outcomes := s.runChecks(ctx, candidate)

	if ctx.Err() != nil {
		// Partial aggregation is disallowed: the fixed-weight formula
		// assumes all five checks contributed.
		result.Status = domain.VerificationFailed
		result.FlaggedReasons = append(result.FlaggedReasons,
			"verification cancelled before all checks completed")
		s.finish(ctx, result, start)
		return result, nil
	}

	s.aggregate(result, outcomes)
	s.finish(ctx, result, start)
	return result, nil
}

// runChecks fans the five checks out and joins before returning. Each check
// writes only its own slot, so the join is the only synchronization needed.
func (s *Service) runChecks(ctx context.Context, candidate domain.CandidateSubmission) map[domain.CheckName]checkOutcome {
	outcomes := make(map[domain.CheckName]checkOutcome, len(domain.CheckNames))
	slots := make([]checkOutcome, len(domain.CheckNames))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range domain.CheckNames {
		i, name := i, name
		g.Go(func() error {
			slots[i] = s.runCheck(gctx, name, candidate)
			return gctx.Err()
		})
	}
	// The only errors goroutines return are cancellations; the caller
	// inspects ctx.Err() to distinguish them.
	_ = g.Wait()

	for i, name := range domain.CheckNames {
		outcomes[name] = slots[i]
	}
	return outcomes
}

func (s *Service) runCheck(ctx context.Context, name domain.CheckName, candidate domain.CandidateSubmission) checkOutcome {
	ctx, span := s.tracer.Start(ctx, "verification.check."+string(name))
	defer span.End()
	start := time.Now()
	defer func() {
		s.metrics.ObserveCheckLatency(string(name), time.Since(start))
	}()

	result, err := s.dispatch(ctx, name, candidate)
	if err != nil {
		s.logger.ErrorContext(ctx, "verification check failed",
			"check", name,
			"error", err,
		)
		return checkOutcome{
			result:   failedCheck(fmt.Sprintf("%s check unavailable: %v", name, err)),
			infraErr: true,
		}
	}
	return checkOutcome{result: result}
}

func (s *Service) dispatch(ctx context.Context, name domain.CheckName, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	switch name {
	case domain.CheckRecordMatch:
		return s.checkRecordMatch(ctx, candidate)
	case domain.CheckLedger:
		return s.checkLedger(ctx, candidate)
	case domain.CheckAnomaly:
		return s.checkAnomalies(ctx, candidate)
	case domain.CheckInstitution:
		return s.checkInstitution(ctx, candidate)
	case domain.CheckDuplicate:
		return s.checkDuplicates(ctx, candidate)
	default:
		return domain.CheckResult{}, fmt.Errorf("unknown check %q", name)
	}
}

// checkRecordMatch wraps the record matcher into a CheckResult. "No record
// at all" is a distinct outcome from "found but below threshold".
func (s *Service) checkRecordMatch(ctx context.Context, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	outcome, err := s.matchRecord(ctx, candidate)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if outcome == nil {
		return domain.CheckResult{
			Passed:     false,
			Confidence: 0,
			Message:    "no matching record found in institutional database",
			Details:    domain.RecordMatchDetails{},
		}, nil
	}

	passed := outcome.score >= s.cfg.MatchThreshold
	message := fmt.Sprintf("record matched with score %d", outcome.score)
	if !passed {
		message = fmt.Sprintf("best record match scored %d, below the acceptance threshold %d", outcome.score, s.cfg.MatchThreshold)
	}
	return domain.CheckResult{
		Passed:     passed,
		Confidence: outcome.score,
		Message:    message,
		Details: domain.RecordMatchDetails{
			MatchedRecordID: outcome.record.ID,
			Score:           outcome.score,
			FieldScores:     outcome.fieldScores,
		},
	}, nil
}

// checkAnomalies runs the anomaly battery and folds findings into one check.
func (s *Service) checkAnomalies(ctx context.Context, candidate domain.CandidateSubmission) (domain.CheckResult, error) {
	findings, err := s.detectAnomalies(ctx, candidate)
	if err != nil {
		return domain.CheckResult{}, err
	}
	for _, f := range findings {
		s.metrics.IncrementFinding(string(f.Type), string(f.Severity))
	}
	return s.aggregateAnomalies(findings), nil
}

// aggregate computes the weighted overall confidence, the validity decision,
// and the flagged-reason list from the five completed checks.
func (s *Service) aggregate(result *domain.VerificationResult, outcomes map[domain.CheckName]checkOutcome) {
	w := s.cfg.Weights
	weightFor := map[domain.CheckName]float64{
		domain.CheckRecordMatch: w.RecordMatch,
		domain.CheckLedger:      w.Ledger,
		domain.CheckAnomaly:     w.Anomaly,
		domain.CheckInstitution: w.Institution,
		domain.CheckDuplicate:   w.Duplicate,
	}

	var weighted float64
	infraFailures := 0
	for name, outcome := range outcomes {
		result.Checks[name] = outcome.result
		weighted += weightFor[name] * float64(outcome.result.Confidence)
		if outcome.infraErr {
			infraFailures++
		}
	}

	result.OverallConfidence = int(math.Round(weighted / w.Sum()))
	result.IsValid = result.OverallConfidence >= s.cfg.ValidityThreshold

	// Deterministic reason order regardless of check completion order.
	for _, name := range domain.CheckNames {
		if check, ok := result.Checks[name]; ok && !check.Passed {
			result.FlaggedReasons = append(result.FlaggedReasons, check.Message)
		}
	}

	if details, ok := result.Checks[domain.CheckAnomaly].Details.(domain.AnomalyDetails); ok {
		result.Findings = details.Findings
	}

	if infraFailures == len(domain.CheckNames) {
		// Every collaborator was unreachable: there is nothing real to
		// aggregate, so the verification itself failed.
		result.Status = domain.VerificationFailed
		result.IsValid = false
		return
	}
	result.Status = domain.VerificationCompleted
}

// finish records metrics and audit for the terminal result.
func (s *Service) finish(ctx context.Context, result *domain.VerificationResult, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.ObserveVerifyLatency(elapsed)
	s.metrics.IncrementOutcome(string(result.Status), strconv.FormatBool(result.IsValid))

	s.logger.InfoContext(ctx, "verification finished",
		"verification_id", result.ID,
		"certificate_number", result.CertificateNumber,
		"status", result.Status,
		"valid", result.IsValid,
		"confidence", result.OverallConfidence,
		"findings", len(result.Findings),
		"duration_ms", elapsed.Milliseconds(),
	)

	if s.audit == nil {
		return
	}
	if err := s.audit.VerificationCompleted(ctx, result); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"verification_id", result.ID,
			"error", err,
		)
	}
}
