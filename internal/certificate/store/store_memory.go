// Package store provides the certificate record repository implementations:
// an in-memory store for tests and development, and a PostgreSQL store for
// production.
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
	"certiva/pkg/platform/similarity"
)

// fuzzyNameThreshold is the minimum name similarity for the fallback lookup.
const fuzzyNameThreshold = 0.8

// InMemoryStore keeps certificate records and blacklist entries in maps.
// Safe for concurrent use.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]domain.CertificateRecord
	blacklist map[string]domain.BlacklistEntry
}

// NewInMemoryStore returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[uuid.UUID]domain.CertificateRecord),
		blacklist: make(map[string]domain.BlacklistEntry),
	}
}

// Save inserts or replaces a record by ID.
func (s *InMemoryStore) Save(_ context.Context, record domain.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// AddBlacklistEntry registers a blacklist entry.
func (s *InMemoryStore) AddBlacklistEntry(_ context.Context, entry domain.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[blacklistKey(entry.Type, entry.Identifier)] = entry
	return nil
}

func (s *InMemoryStore) FindByCertificateNumber(_ context.Context, number string) (*domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if strings.EqualFold(record.CertificateNumber, number) {
			r := record
			return &r, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *InMemoryStore) FindByNameRollCourseYear(_ context.Context, name, roll, course string, year int, institutionID uuid.UUID) (*domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.CertificateRecord
	bestScore := 0.0
	for _, record := range s.records {
		if roll != "" && !strings.EqualFold(record.RollNumber, roll) {
			continue
		}
		if institutionID != uuid.Nil && record.InstitutionID != institutionID {
			continue
		}
		if year != 0 && record.PassingYear != year {
			continue
		}
		score := similarity.Score(strings.ToLower(name), strings.ToLower(record.StudentName))
		if score >= fuzzyNameThreshold && score > bestScore {
			r := record
			best = &r
			bestScore = score
		}
	}
	if best == nil {
		return nil, ports.ErrNotFound
	}
	return best, nil
}

func (s *InMemoryStore) FindDuplicates(_ context.Context, candidate domain.CandidateSubmission, excludeID uuid.UUID) ([]domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var duplicates []domain.CertificateRecord
	for _, record := range s.records {
		if record.ID == excludeID {
			continue
		}
		if candidate.CertificateNumber != "" && strings.EqualFold(record.CertificateNumber, candidate.CertificateNumber) {
			duplicates = append(duplicates, record)
			continue
		}
		if candidate.StudentName != "" && candidate.RollNumber != "" &&
			strings.EqualFold(record.StudentName, candidate.StudentName) &&
			strings.EqualFold(record.RollNumber, candidate.RollNumber) &&
			strings.EqualFold(record.Course, candidate.Course) &&
			record.PassingYear == candidate.PassingYear {
			duplicates = append(duplicates, record)
		}
	}
	return duplicates, nil
}

// AggregateStats averages grades over VERIFIED records only; pending or
// flagged uploads must not skew the outlier baseline.
func (s *InMemoryStore) AggregateStats(_ context.Context, institutionID uuid.UUID, course string) (*ports.AggregateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cgpaSum, pctSum float64
	var cgpaN, pctN, sample int
	for _, record := range s.records {
		if record.Status != domain.CertificateVerified {
			continue
		}
		if institutionID != uuid.Nil && record.InstitutionID != institutionID {
			continue
		}
		if !strings.EqualFold(record.Course, course) {
			continue
		}
		sample++
		if record.CGPA != nil {
			cgpaSum += *record.CGPA
			cgpaN++
		}
		if record.Percentage != nil {
			pctSum += *record.Percentage
			pctN++
		}
	}

	stats := &ports.AggregateStats{SampleSize: sample}
	if cgpaN > 0 {
		stats.MeanCGPA = cgpaSum / float64(cgpaN)
	}
	if pctN > 0 {
		stats.MeanPercentage = pctSum / float64(pctN)
	}
	return stats, nil
}

func (s *InMemoryStore) FindBlacklistEntry(_ context.Context, entryType domain.BlacklistType, identifier string) (*domain.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.blacklist[blacklistKey(entryType, identifier)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &entry, nil
}

func blacklistKey(entryType domain.BlacklistType, identifier string) string {
	return string(entryType) + "|" + strings.ToLower(strings.TrimSpace(identifier))
}
