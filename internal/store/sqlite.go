package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amishk599/jobboard/internal/model"
)

// SQLiteStore is the embedded persistence gateway backed by a SQLite file.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs and applications tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// modernc sqlite takes pragmas in the DSN; foreign keys are off by default.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer keeps the guarded insert atomic.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s := &SQLiteStore{sqlStore{db: db, d: sqliteDialect{}}}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type sqliteDialect struct{}

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			department       TEXT NOT NULL,
			location         TEXT NOT NULL,
			description      TEXT NOT NULL,
			posting_date     TEXT NOT NULL,
			is_active        INTEGER NOT NULL DEFAULT 1,
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
			resume_size INTEGER NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			applied_at  TEXT NOT NULL,
			UNIQUE (job_id, email)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_email_applied ON applications (email, applied_at)`,
	}
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) encodeTime(t time.Time) any { return formatTime(t) }

func (sqliteDialect) insertApplicationSQL() string {
	return `INSERT INTO applications
		(id, job_id, full_name, email, phone, resume_ref, resume_type, resume_size, status, applied_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (? = 0 OR (SELECT COUNT(*) FROM applications WHERE email = ? AND applied_at >= ? AND applied_at < ?) < ?)
		  AND (? = 0 OR (SELECT COUNT(*) FROM applications WHERE job_id = ?) < ?)`
}

// SQLite has a single writer connection, so the insert statement is already
// serialized.
func (sqliteDialect) guardLocks(model.Application, model.InsertGuard) []lockStmt { return nil }

func (sqliteDialect) isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
