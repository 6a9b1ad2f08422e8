package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/amishk599/jobboard/internal/model"
)

// PostgresStore is the persistence gateway backed by a hosted PostgreSQL database.
type PostgresStore struct {
	sqlStore
}

// PostgresOptions tunes the connection pool.
type PostgresOptions struct {
	MaxConns int
	MaxIdle  int
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(dsn string, opts PostgresOptions) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	if opts.MaxIdle > 0 {
		db.SetMaxIdleConns(opts.MaxIdle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres db: %w", err)
	}

	s := NewPostgresStoreFromDB(db)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an already open connection without touching the schema.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore{db: db, d: postgresDialect{}}}
}

type postgresDialect struct{}

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			department       TEXT NOT NULL,
			location         TEXT NOT NULL,
			description      TEXT NOT NULL,
			posting_date     TIMESTAMPTZ NOT NULL,
			is_active        BOOLEAN NOT NULL DEFAULT TRUE,
			max_applications INTEGER NOT NULL DEFAULT 5
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id          TEXT PRIMARY KEY,
			job_id      TEXT NOT NULL REFERENCES jobs(id),
			full_name   TEXT NOT NULL,
			email       TEXT NOT NULL,
			phone       TEXT NOT NULL,
			resume_ref  TEXT NOT NULL,
			resume_type TEXT NOT NULL,
			resume_size BIGINT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			applied_at  TIMESTAMPTZ NOT NULL,
			CONSTRAINT applications_job_email_key UNIQUE (job_id, email)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_email_applied ON applications (email, applied_at)`,
	}
}

func (postgresDialect) rebind(query string) string { return rebindDollar(query) }

func (postgresDialect) encodeTime(t time.Time) any { return t.UTC() }

// Parameters in a bare SELECT list have no inferred type, hence the casts.
func (postgresDialect) insertApplicationSQL() string {
	return `INSERT INTO applications
		(id, job_id, full_name, email, phone, resume_ref, resume_type, resume_size, status, applied_at)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::bigint, $9::text, $10::timestamptz
		WHERE ($11::int = 0 OR (SELECT COUNT(*) FROM applications WHERE email = $12 AND applied_at >= $13 AND applied_at < $14) < $15)
		  AND ($16::int = 0 OR (SELECT COUNT(*) FROM applications WHERE job_id = $17) < $18)`
}

// Advisory lock namespaces for the guard locks.
const (
	lockApplicant = 1
	lockJob       = 2
)

// guardLocks serializes inserts per applicant (daily limit) and per job
// (capacity). READ COMMITTED alone lets two inserts count the same rows.
// Applicant is always locked before job.
func (postgresDialect) guardLocks(app model.Application, g model.InsertGuard) []lockStmt {
	var locks []lockStmt
	if g.DailyLimit > 0 {
		locks = append(locks, lockStmt{`SELECT pg_advisory_xact_lock($1, hashtext($2))`, []any{lockApplicant, app.Email}})
	}
	if g.MaxApplications > 0 {
		locks = append(locks, lockStmt{`SELECT pg_advisory_xact_lock($1, hashtext($2))`, []any{lockJob, app.JobID}})
	}
	return locks
}

func (postgresDialect) isUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}
