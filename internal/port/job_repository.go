package port

import (
	"context"

	"github.com/google/uuid"

	"salespipe/internal/domain"
)

// JobRepository defines the contract for import job persistence. A given
// job record is mutated by exactly one orchestrator flow at a time; the
// repository only has to keep claim operations race-free across workers.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *domain.JobStatus, offset, limit int) ([]domain.ImportJob, int, error)
	Update(ctx context.Context, job *domain.ImportJob) error
	// ClaimQueued atomically moves up to limit queued jobs to running and
	// returns them; two workers never claim the same job.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ImportJob, error)
	// ResetForRetry re-queues a failed job with progress and error cleared.
	// Jobs in any other status return ErrJobNotRetryable.
	ResetForRetry(ctx context.Context, id uuid.UUID) error
	// RequestCancel flags a pending, queued or running job for cooperative
	// cancellation. Terminal jobs return ErrCancelNotAllowed.
	RequestCancel(ctx context.Context, id uuid.UUID) error
	// CancelRequested reports whether a cancel flag is set; orchestrators
	// poll it at unit boundaries.
	CancelRequested(ctx context.Context, id uuid.UUID) (bool, error)
}
