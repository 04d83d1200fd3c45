package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
)

// PostgresStore persists institutions in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed institution repository.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Institution, error) {
	var inst domain.Institution
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, code, active, verified, created_at
		 FROM institutions WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.Name, &inst.Code, &inst.Active, &inst.Verified, &inst.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return &inst, nil
}

// Save upserts an institution by ID.
func (s *PostgresStore) Save(ctx context.Context, institution domain.Institution) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO institutions (id, name, code, active, verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   code = EXCLUDED.code,
		   active = EXCLUDED.active,
		   verified = EXCLUDED.verified`,
		institution.ID, institution.Name, institution.Code,
		institution.Active, institution.Verified, institution.CreatedAt)
	if err != nil {
		return fmt.Errorf("save institution: %w", err)
	}
	return nil
}
