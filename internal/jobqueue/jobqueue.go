// Package jobqueue implements component E: atomic job lifecycle for
// rebuilds, stored in the graph store's impact_jobs table. The database is
// the arbiter — no in-memory lock backs acquire_job (4.E invariant, I3).
package jobqueue

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/logging"
)

// Queue wraps the graph store's underlying *sql.DB for job-lifecycle
// statements. It shares the database with the graph store rather than
// opening a second connection pool.
type Queue struct {
	db *sql.DB
}

// New builds a Queue over store's database.
func New(store *graphstore.Store) *Queue {
	return &Queue{db: store.DB()}
}

// CreateJob inserts a new pending job.
func (q *Queue) CreateJob(mode string, targetPaths []string) (*graphstore.Job, error) {
	jobID := uuid.NewString()
	pathsJSON, _ := json.Marshal(targetPaths)

	_, err := q.db.Exec(`
		INSERT INTO impact_jobs (job_id, mode, status, target_paths)
		VALUES (?, ?, 'pending', ?)
	`, jobID, mode, string(pathsJSON))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: create job")
	}

	logging.Get(logging.CategoryJobQueue).Infow("job created", "job_id", jobID, "mode", mode)
	return q.GetJob(jobID)
}

// GetJob fetches one job by id.
func (q *Queue) GetJob(jobID string) (*graphstore.Job, error) {
	row := q.db.QueryRow(jobSelect+` WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "job not found: %s", jobID)
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: get job %s", jobID)
	}
	return job, nil
}

// GetPendingJob returns the oldest pending job, if any.
func (q *Queue) GetPendingJob() (*graphstore.Job, error) {
	return q.getOneByStatus("pending")
}

// GetRunningJob returns the currently running job, if any.
func (q *Queue) GetRunningJob() (*graphstore.Job, error) {
	return q.getOneByStatus("running")
}

func (q *Queue) getOneByStatus(status string) (*graphstore.Job, error) {
	row := q.db.QueryRow(jobSelect+` WHERE status = ? ORDER BY created_at ASC LIMIT 1`, status)
	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: get %s job", status)
	}
	return job, nil
}

// ListJobs returns jobs optionally filtered by status, most recent first,
// bounded by limit (0 means unbounded).
func (q *Queue) ListJobs(status string, limit int) ([]graphstore.Job, error) {
	query := jobSelect
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: list jobs")
	}
	defer rows.Close()

	var out []graphstore.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: scan job")
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// AcquireJob implements 4.E's atomic acquire: a single UPDATE ... WHERE
// status='pending' RETURNING-equivalent. sqlite's driver doesn't support
// RETURNING in a way every version understands, so this does the UPDATE
// then re-selects within the same call; the UPDATE's affected-row count is
// still the atomic arbiter — at most one concurrent caller sees rows==1.
func (q *Queue) AcquireJob(jobID string) (*graphstore.Job, error) {
	res, err := q.db.Exec(`
		UPDATE impact_jobs SET status = 'running', started_at = CURRENT_TIMESTAMP
		WHERE job_id = ? AND status = 'pending'
	`, jobID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: acquire job %s", jobID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "jobqueue: acquire job %s rows affected", jobID)
	}
	if n == 0 {
		return nil, apperr.New(apperr.Conflict, "jobqueue: job %s already acquired or not pending", jobID)
	}

	logging.Get(logging.CategoryJobQueue).Infow("job acquired", "job_id", jobID)
	return q.GetJob(jobID)
}

// CompleteJob marks an acquired job as complete. A job not currently
// running is left untouched (never re-opens a terminal job).
func (q *Queue) CompleteJob(jobID string, processedFiles int) error {
	res, err := q.db.Exec(`
		UPDATE impact_jobs SET status = 'complete', progress = 100, processed_files = ?, completed_at = CURRENT_TIMESTAMP
		WHERE job_id = ? AND status = 'running'
	`, processedFiles, jobID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "jobqueue: complete job %s", jobID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.Conflict, "jobqueue: job %s is not running", jobID)
	}
	logging.Get(logging.CategoryJobQueue).Infow("job completed", "job_id", jobID)
	return nil
}

// FailJob marks an acquired job as failed with the given error message.
func (q *Queue) FailJob(jobID string, errMsg string) error {
	res, err := q.db.Exec(`
		UPDATE impact_jobs SET status = 'failed', error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE job_id = ? AND status = 'running'
	`, errMsg, jobID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "jobqueue: fail job %s", jobID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.Conflict, "jobqueue: job %s is not running", jobID)
	}
	logging.Get(logging.CategoryJobQueue).Warnw("job failed", "job_id", jobID, "error", errMsg)
	return nil
}

// UpdateProgress reports incremental progress on a running job.
func (q *Queue) UpdateProgress(jobID string, progress, processedFiles, totalFiles int) error {
	_, err := q.db.Exec(`
		UPDATE impact_jobs SET progress = ?, processed_files = ?, total_files = ?
		WHERE job_id = ? AND status = 'running'
	`, progress, processedFiles, totalFiles, jobID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "jobqueue: update progress for %s", jobID)
	}
	return nil
}

const jobSelect = `SELECT job_id, mode, status, progress, total_files, processed_files,
	COALESCE(target_paths,'[]'), started_at, completed_at, COALESCE(error_message,''), created_at FROM impact_jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*graphstore.Job, error) {
	var job graphstore.Job
	var pathsJSON string
	if err := r.Scan(&job.JobID, &job.Mode, &job.Status, &job.Progress, &job.TotalFiles, &job.ProcessedFiles,
		&pathsJSON, &job.StartedAt, &job.CompletedAt, &job.ErrorMessage, &job.CreatedAt); err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(pathsJSON), &job.TargetPaths)
	return &job, nil
}
