package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
	"certiva/pkg/platform/similarity"
)

// PostgresStore persists certificate records and blacklist entries in
// PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed record repository.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const recordColumns = `id, certificate_number, student_name, father_name, mother_name,
	roll_number, registration_number, course, branch, passing_year, grade,
	cgpa, percentage, date_of_issue, completion_date, institution_id,
	is_legacy, ledger_digest, status, created_at, updated_at`

func (s *PostgresStore) FindByCertificateNumber(ctx context.Context, number string) (*domain.CertificateRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM certificates WHERE lower(certificate_number) = lower($1)`,
		number)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find by certificate number: %w", err)
	}
	return record, nil
}

// FindByNameRollCourseYear narrows by the exact fields in SQL and resolves
// the fuzzy name comparison in Go: the similarity metric must match the
// engine's exactly, so it is not delegated to the database.
func (s *PostgresStore) FindByNameRollCourseYear(ctx context.Context, name, roll, course string, year int, institutionID uuid.UUID) (*domain.CertificateRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM certificates WHERE TRUE`
	args := []any{}
	n := 0
	add := func(clause string, value any) {
		n++
		query += fmt.Sprintf(" AND %s = $%d", clause, n)
		args = append(args, value)
	}
	if roll != "" {
		add("lower(roll_number)", strings.ToLower(roll))
	}
	if year != 0 {
		add("passing_year", year)
	}
	if institutionID != uuid.Nil {
		add("institution_id", institutionID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find by name and roll: %w", err)
	}
	defer rows.Close()

	var best *domain.CertificateRecord
	bestScore := 0.0
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		score := similarity.Score(strings.ToLower(name), strings.ToLower(record.StudentName))
		if score >= fuzzyNameThreshold && score > bestScore {
			best = record
			bestScore = score
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if best == nil {
		return nil, ports.ErrNotFound
	}
	return best, nil
}

func (s *PostgresStore) FindDuplicates(ctx context.Context, candidate domain.CandidateSubmission, excludeID uuid.UUID) ([]domain.CertificateRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM certificates
		 WHERE id != $1
		   AND (lower(certificate_number) = lower($2)
		        OR (lower(student_name) = lower($3)
		            AND lower(roll_number) = lower($4)
		            AND lower(course) = lower($5)
		            AND passing_year = $6
		            AND $3 != '' AND $4 != ''))`,
		excludeID, candidate.CertificateNumber, candidate.StudentName,
		candidate.RollNumber, candidate.Course, candidate.PassingYear)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []domain.CertificateRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		duplicates = append(duplicates, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicates: %w", err)
	}
	return duplicates, nil
}

// AggregateStats averages grades over VERIFIED records only.
func (s *PostgresStore) AggregateStats(ctx context.Context, institutionID uuid.UUID, course string) (*ports.AggregateStats, error) {
	var stats ports.AggregateStats
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(cgpa), 0), COALESCE(AVG(percentage), 0), COUNT(*)
		 FROM certificates
		 WHERE status = $1 AND institution_id = $2 AND lower(course) = lower($3)`,
		domain.CertificateVerified, institutionID, course,
	).Scan(&stats.MeanCGPA, &stats.MeanPercentage, &stats.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) FindBlacklistEntry(ctx context.Context, entryType domain.BlacklistType, identifier string) (*domain.BlacklistEntry, error) {
	var entry domain.BlacklistEntry
	err := s.pool.QueryRow(ctx,
		`SELECT id, entry_type, identifier, reason, added_at
		 FROM blacklist
		 WHERE entry_type = $1 AND lower(identifier) = lower($2)`,
		entryType, strings.TrimSpace(identifier),
	).Scan(&entry.ID, &entry.Type, &entry.Identifier, &entry.Reason, &entry.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find blacklist entry: %w", err)
	}
	return &entry, nil
}

// Save upserts a record by certificate number. Used by institution uploads
// and by tests.
func (s *PostgresStore) Save(ctx context.Context, record domain.CertificateRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO certificates (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		 ON CONFLICT (certificate_number) DO UPDATE SET
		   student_name = EXCLUDED.student_name,
		   status = EXCLUDED.status,
		   ledger_digest = EXCLUDED.ledger_digest,
		   updated_at = EXCLUDED.updated_at`,
		record.ID, record.CertificateNumber, record.StudentName, record.FatherName,
		record.MotherName, record.RollNumber, record.RegistrationNumber, record.Course,
		record.Branch, record.PassingYear, record.Grade, record.CGPA, record.Percentage,
		record.DateOfIssue, record.CompletionDate, record.InstitutionID, record.IsLegacy,
		record.LedgerDigest, record.Status, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

// AddBlacklistEntry registers a blacklist entry.
func (s *PostgresStore) AddBlacklistEntry(ctx context.Context, entry domain.BlacklistEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blacklist (id, entry_type, identifier, reason, added_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (entry_type, identifier) DO NOTHING`,
		entry.ID, entry.Type, entry.Identifier, entry.Reason, entry.AddedAt)
	if err != nil {
		return fmt.Errorf("add blacklist entry: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.CertificateRecord, error) {
	var r domain.CertificateRecord
	err := row.Scan(
		&r.ID, &r.CertificateNumber, &r.StudentName, &r.FatherName, &r.MotherName,
		&r.RollNumber, &r.RegistrationNumber, &r.Course, &r.Branch, &r.PassingYear,
		&r.Grade, &r.CGPA, &r.Percentage, &r.DateOfIssue, &r.CompletionDate,
		&r.InstitutionID, &r.IsLegacy, &r.LedgerDigest, &r.Status,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
