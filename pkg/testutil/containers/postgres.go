//go:build integration

// Package containers starts throwaway infrastructure for integration tests.
package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors migrations/0001_init.sql. Kept inline so the helper has no
// filesystem dependency on the repo layout.
const schema = `
CREATE TABLE IF NOT EXISTS institutions (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL,
    code        TEXT NOT NULL DEFAULT '',
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    verified    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS certificates (
    id                  UUID PRIMARY KEY,
    certificate_number  TEXT NOT NULL UNIQUE,
    student_name        TEXT NOT NULL,
    father_name         TEXT NOT NULL DEFAULT '',
    mother_name         TEXT NOT NULL DEFAULT '',
    roll_number         TEXT NOT NULL DEFAULT '',
    registration_number TEXT NOT NULL DEFAULT '',
    course              TEXT NOT NULL DEFAULT '',
    branch              TEXT NOT NULL DEFAULT '',
    passing_year        INT NOT NULL DEFAULT 0,
    grade               TEXT NOT NULL DEFAULT '',
    cgpa                DOUBLE PRECISION,
    percentage          DOUBLE PRECISION,
    date_of_issue       TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    completion_date     TIMESTAMPTZ,
    institution_id      UUID NOT NULL,
    is_legacy           BOOLEAN NOT NULL DEFAULT FALSE,
    ledger_digest       TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'PENDING',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS blacklist (
    id          UUID PRIMARY KEY,
    entry_type  TEXT NOT NULL,
    identifier  TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    added_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (entry_type, identifier)
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with a ready
// pgx pool and the schema applied.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
// The container is terminated through t.Cleanup.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("certiva"),
		tcpostgres.WithUsername("certiva"),
		tcpostgres.WithPassword("certiva"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, Pool: pool}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
