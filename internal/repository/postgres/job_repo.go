package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.ImportJob) error {
	now := time.Now().UTC()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.JobPending
	}
	job.CreatedAt = now

	query := `INSERT INTO import_jobs (
		id, user_id, type, entity, status, progress, stages, cancel_requested,
		error_message, payload, result, created_at, started_at, completed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.UserID, job.Type, job.Entity, job.Status, job.Progress,
		job.Stages, job.CancelRequested, job.ErrorMessage, job.Payload,
		job.Result, job.CreatedAt, job.StartedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	var job domain.ImportJob
	err := r.db.GetContext(ctx, &job,
		"SELECT * FROM import_jobs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.JobStatus, offset, limit int) ([]domain.ImportJob, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}
	if status != nil {
		where += " AND status = $2"
		args = append(args, *status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM import_jobs " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("jobRepo.ListByUser: count: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM import_jobs %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	jobs := []domain.ImportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("jobRepo.ListByUser: %w", err)
	}
	return jobs, total, nil
}

func (r *jobRepo) Update(ctx context.Context, job *domain.ImportJob) error {
	// GREATEST keeps progress monotonic against stale writers while the job
	// is running; any other transition takes the reported value as-is.
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_jobs SET
			status = $1,
			progress = CASE WHEN import_jobs.status = $2 AND $1 = $2
				THEN GREATEST(progress, $3) ELSE $3 END,
			stages = $4, error_message = $5, result = $6,
			started_at = $7, completed_at = $8
		 WHERE id = $9`,
		job.Status, domain.JobRunning, job.Progress, job.Stages,
		job.ErrorMessage, job.Result, job.StartedAt, job.CompletedAt, job.ID)
	if err != nil {
		return fmt.Errorf("jobRepo.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *jobRepo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_jobs SET
			status = $1, progress = 0, error_message = '', result = NULL,
			cancel_requested = false, started_at = NULL, completed_at = NULL
		 WHERE id = $2 AND status = $3`,
		domain.JobQueued, id, domain.JobFailed)
	if err != nil {
		return fmt.Errorf("jobRepo.ResetForRetry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domain.ErrJobNotRetryable
	}
	return nil
}

func (r *jobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	// SKIP LOCKED keeps concurrent workers from claiming the same job.
	query := `UPDATE import_jobs SET status = $1, started_at = $2
		WHERE id IN (
			SELECT id FROM import_jobs
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	now := time.Now().UTC()
	jobs := []domain.ImportJob{}
	rows, err := r.db.QueryxContext(ctx, query, domain.JobRunning, now, domain.JobQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var job domain.ImportJob
		if err := rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("jobRepo.ClaimQueued: scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued: rows: %w", err)
	}
	return jobs, nil
}

func (r *jobRepo) RequestCancel(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_jobs SET cancel_requested = true
		 WHERE id = $1 AND status IN ($2, $3, $4)`,
		id, domain.JobPending, domain.JobQueued, domain.JobRunning)
	if err != nil {
		return fmt.Errorf("jobRepo.RequestCancel: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Distinguish a missing job from one already in a terminal state.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domain.ErrCancelNotAllowed
	}
	return nil
}

func (r *jobRepo) CancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	var requested bool
	err := r.db.GetContext(ctx, &requested,
		"SELECT cancel_requested FROM import_jobs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrJobNotFound
		}
		return false, fmt.Errorf("jobRepo.CancelRequested: %w", err)
	}
	return requested, nil
}
