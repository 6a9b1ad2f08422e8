package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// dialect captures what differs between the SQL backends.
type dialect interface {
	schema() []string
	// rebind rewrites ? placeholders into the backend's form.
	rebind(query string) string
	encodeTime(t time.Time) any
	insertApplicationSQL() string
	// guardLocks are statements run inside the insert transaction, before the
	// guarded insert, to serialize submissions that share a guard.
	guardLocks(app model.Application, g model.InsertGuard) []lockStmt
	isUniqueViolation(err error) bool
}

type lockStmt struct {
	query string
	args  []any
}

// sqlStore implements model.Store on top of database/sql for any dialect.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

var _ model.Store = (*sqlStore)(nil)

func (s *sqlStore) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

const jobColumns = `j.id, j.title, j.department, j.location, j.description, j.posting_date, j.is_active, j.max_applications,
	(SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id)`

// ListJobs returns jobs newest first, each with its derived application count.
func (s *sqlStore) ListJobs(ctx context.Context, activeOnly bool) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j`
	var args []any
	if activeOnly {
		query += ` WHERE j.is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY j.posting_date DESC, j.id`

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns the job with id or model.ErrJobNotFound.
func (s *sqlStore) GetJob(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+jobColumns+` FROM jobs j WHERE j.id = ?`), id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, model.ErrJobNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getting job %s: %w", id, err)
	}
	return j, nil
}

// CreateJob inserts job as given; the caller assigns ID and PostedAt.
func (s *sqlStore) CreateJob(ctx context.Context, job model.Job) (model.Job, error) {
	_, err := s.db.ExecContext(ctx, s.d.rebind(`INSERT INTO jobs
		(id, title, department, location, description, posting_date, is_active, max_applications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID, job.Title, job.Department, job.Location, job.Description,
		s.d.encodeTime(job.PostedAt), job.Active, job.Capacity(),
	)
	if err != nil {
		return model.Job{}, fmt.Errorf("creating job %s: %w", job.ID, err)
	}
	return s.GetJob(ctx, job.ID)
}

// UpdateJob overwrites the editable fields of a job.
func (s *sqlStore) UpdateJob(ctx context.Context, id string, f model.JobFields) (model.Job, error) {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`UPDATE jobs
		SET title = ?, department = ?, location = ?, description = ?, max_applications = ?
		WHERE id = ?`),
		f.Title, f.Department, f.Location, f.Description, f.MaxApplications, id,
	)
	if err != nil {
		return model.Job{}, fmt.Errorf("updating job %s: %w", id, err)
	}
	if err := expectOneRow(res, model.ErrJobNotFound); err != nil {
		return model.Job{}, err
	}
	return s.GetJob(ctx, id)
}

// SetJobActive sets the active flag of a job.
func (s *sqlStore) SetJobActive(ctx context.Context, id string, active bool) (model.Job, error) {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`UPDATE jobs SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return model.Job{}, fmt.Errorf("setting job %s active=%v: %w", id, active, err)
	}
	if err := expectOneRow(res, model.ErrJobNotFound); err != nil {
		return model.Job{}, err
	}
	return s.GetJob(ctx, id)
}

// CountApplications counts applications matching filter.
func (s *sqlStore) CountApplications(ctx context.Context, filter model.ApplicationFilter) (int, error) {
	where, args := s.applicationWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT COUNT(*) FROM applications a`+where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting applications: %w", err)
	}
	return n, nil
}

const applicationColumns = `a.id, a.job_id, a.full_name, a.email, a.phone, a.resume_ref, a.resume_type, a.resume_size, a.status, a.applied_at`

// FindApplication returns the application for (jobID, email), or nil when none exists.
func (s *sqlStore) FindApplication(ctx context.Context, jobID, email string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+applicationColumns+`
		FROM applications a WHERE a.job_id = ? AND a.email = ?`), jobID, email)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding application for job %s: %w", jobID, err)
	}
	return &a, nil
}

// ListApplications returns matching applications joined with their job, newest first.
func (s *sqlStore) ListApplications(ctx context.Context, filter model.ApplicationFilter) ([]model.ApplicationView, error) {
	where, args := s.applicationWhere(filter)
	query := `SELECT ` + applicationColumns + `, COALESCE(j.title, ''), COALESCE(j.department, '')
		FROM applications a LEFT JOIN jobs j ON j.id = a.job_id` + where + `
		ORDER BY a.applied_at DESC, a.id`

	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var views []model.ApplicationView
	for rows.Next() {
		var v model.ApplicationView
		dest := append(applicationDest(&v.Application), &v.JobTitle, &v.JobDepartment)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return views, nil
}

// InsertApplication inserts app in one transaction: the dialect's guard
// locks are taken first, then a single statement inserts the row only if the
// guard's limits still hold. A second application for the same (job, email)
// is rejected by the unique constraint and reported as
// model.ErrDuplicateApplication.
func (s *sqlStore) InsertApplication(ctx context.Context, app model.Application, g model.InsertGuard) (model.Application, error) {
	n, err := s.insertGuarded(ctx, app, g)
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return model.Application{}, model.ErrDuplicateApplication
		}
		return model.Application{}, fmt.Errorf("inserting application for job %s: %w", app.JobID, err)
	}
	if n == 0 {
		return model.Application{}, s.guardFailure(ctx, app, g)
	}
	return app, nil
}

func (s *sqlStore) insertGuarded(ctx context.Context, app model.Application, g model.InsertGuard) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, l := range s.d.guardLocks(app, g) {
		if _, err := tx.ExecContext(ctx, l.query, l.args...); err != nil {
			return 0, fmt.Errorf("taking guard lock: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, s.d.insertApplicationSQL(),
		app.ID, app.JobID, app.FullName, app.Email, app.Phone,
		app.ResumeRef, app.ResumeType, app.ResumeSize, string(app.Status), s.d.encodeTime(app.SubmittedAt),
		g.DailyLimit, app.Email, s.d.encodeTime(g.WindowStart), s.d.encodeTime(g.WindowEnd), g.DailyLimit,
		g.MaxApplications, app.JobID, g.MaxApplications,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, tx.Commit()
}

// guardFailure works out which guard limit rejected an insert.
func (s *sqlStore) guardFailure(ctx context.Context, app model.Application, g model.InsertGuard) error {
	if g.DailyLimit > 0 {
		n, err := s.CountApplications(ctx, model.ApplicationFilter{Email: app.Email, Since: g.WindowStart, Until: g.WindowEnd})
		if err != nil {
			return err
		}
		if n >= g.DailyLimit {
			return model.ErrRateLimitExceeded
		}
	}
	return model.ErrJobFull
}

// UpdateApplicationStatus overwrites the status of one application.
func (s *sqlStore) UpdateApplicationStatus(ctx context.Context, id string, status model.Status) (model.Application, error) {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`UPDATE applications SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return model.Application{}, fmt.Errorf("updating application %s: %w", id, err)
	}
	if err := expectOneRow(res, model.ErrApplicationNotFound); err != nil {
		return model.Application{}, err
	}

	row := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+applicationColumns+` FROM applications a WHERE a.id = ?`), id)
	a, err := scanApplication(row)
	if err != nil {
		return model.Application{}, fmt.Errorf("reading application %s: %w", id, err)
	}
	return a, nil
}

// Close closes the underlying database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) applicationWhere(f model.ApplicationFilter) (string, []any) {
	var conds []string
	var args []any
	if f.JobID != "" {
		conds = append(conds, "a.job_id = ?")
		args = append(args, f.JobID)
	}
	if f.Email != "" {
		conds = append(conds, "a.email = ?")
		args = append(args, f.Email)
	}
	if f.Status != "" {
		conds = append(conds, "a.status = ?")
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "a.applied_at >= ?")
		args = append(args, s.d.encodeTime(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "a.applied_at < ?")
		args = append(args, s.d.encodeTime(f.Until))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(r scanner) (model.Job, error) {
	var j model.Job
	err := r.Scan(&j.ID, &j.Title, &j.Department, &j.Location, &j.Description,
		timeScanner{&j.PostedAt}, &j.Active, &j.MaxApplications, &j.ApplicationCount)
	return j, err
}

func applicationDest(a *model.Application) []any {
	return []any{&a.ID, &a.JobID, &a.FullName, &a.Email, &a.Phone,
		&a.ResumeRef, &a.ResumeType, &a.ResumeSize, (*string)(&a.Status), timeScanner{&a.SubmittedAt}}
}

func scanApplication(r scanner) (model.Application, error) {
	var a model.Application
	err := r.Scan(applicationDest(&a)...)
	return a, err
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// timeLayout has a fixed width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeScanner reads timestamps stored either natively or as text.
type timeScanner struct {
	t *time.Time
}

func (ts timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts timeScanner) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q", s)
}

// rebindDollar rewrites ? placeholders as $1, $2, ...
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
