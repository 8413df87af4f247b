package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

// JobFile references an uploaded buffer staged in object storage for a
// queued job.
type JobFile struct {
	FileName   string `json:"file_name"`
	MIMEType   string `json:"mime_type"`
	StorageKey string `json:"storage_key"`
	Size       int64  `json:"size"`
}

// JobPayload is the persisted description of what a queued job should run.
// File bytes live in object storage; the payload carries only references.
type JobPayload struct {
	Files         map[domain.EntityType][]JobFile `json:"files"`
	ProcessOrder  []domain.EntityType             `json:"process_order,omitempty"`
	Accounts      AccountImportOptions            `json:"accounts"`
	Products      ProductImportOptions            `json:"products"`
	Opportunities OpportunityImportOptions        `json:"opportunities"`
	Assets        AssetImportOptions              `json:"assets"`
}

// SubmitInput is the DTO for queueing an asynchronous import.
type SubmitInput struct {
	UserID        uuid.UUID
	Type          domain.JobType
	Entity        domain.EntityType
	Files         map[domain.EntityType][]ImportInput
	ProcessOrder  []domain.EntityType
	Accounts      AccountImportOptions
	Products      ProductImportOptions
	Opportunities OpportunityImportOptions
	Assets        AssetImportOptions
}

// JobStatusOutput is the derived view of a job returned to callers.
type JobStatusOutput struct {
	Job                    *domain.ImportJob `json:"job"`
	ElapsedTime            time.Duration     `json:"elapsed_time_ms"`
	EstimatedTimeRemaining *time.Duration    `json:"estimated_time_remaining_ms,omitempty"`
}

// JobService manages the import job lifecycle. Only the submitting user may
// query, cancel or retry a job.
type JobService interface {
	Submit(ctx context.Context, input *SubmitInput) (*domain.ImportJob, error)
	GetStatus(ctx context.Context, jobID, userID uuid.UUID) (*JobStatusOutput, error)
	List(ctx context.Context, userID uuid.UUID, status *domain.JobStatus, offset, limit int) ([]domain.ImportJob, int, error)
	Cancel(ctx context.Context, jobID, userID uuid.UUID) error
	Retry(ctx context.Context, jobID, userID uuid.UUID) (*domain.ImportJob, error)
}

type jobService struct {
	jobs    port.JobRepository
	storage port.ObjectStorage
	bucket  string
	logger  *zap.Logger
}

// NewJobService creates the job tracker.
func NewJobService(jobs port.JobRepository, storage port.ObjectStorage, bucket string, logger *zap.Logger) JobService {
	return &jobService{jobs: jobs, storage: storage, bucket: bucket, logger: logger}
}

func (s *jobService) Submit(ctx context.Context, input *SubmitInput) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:     uuid.New(),
		UserID: input.UserID,
		Type:   input.Type,
		Entity: input.Entity,
		Status: domain.JobPending,
	}

	payload := JobPayload{
		Files:         make(map[domain.EntityType][]JobFile),
		ProcessOrder:  input.ProcessOrder,
		Accounts:      input.Accounts,
		Products:      input.Products,
		Opportunities: input.Opportunities,
		Assets:        input.Assets,
	}
	for entity, files := range input.Files {
		for _, f := range files {
			key := fmt.Sprintf("imports/%s/%s/%s/%s", input.UserID, job.ID, entity, f.FileName)
			_, err := s.storage.Upload(ctx, port.UploadInput{
				Bucket:      s.bucket,
				Key:         key,
				Body:        bytes.NewReader(f.Data),
				ContentType: f.MIMEType,
				Size:        int64(len(f.Data)),
			})
			if err != nil {
				return nil, fmt.Errorf("jobService.Submit: stage %s: %w", f.FileName, err)
			}
			payload.Files[entity] = append(payload.Files[entity], JobFile{
				FileName:   f.FileName,
				MIMEType:   f.MIMEType,
				StorageKey: key,
				Size:       int64(len(f.Data)),
			})
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobService.Submit: encode payload: %w", err)
	}
	job.Payload = raw
	job.Status = domain.JobQueued

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("jobService.Submit: queued",
		zap.String("job_id", job.ID.String()),
		zap.String("type", string(job.Type)))
	return job, nil
}

func (s *jobService) GetStatus(ctx context.Context, jobID, userID uuid.UUID) (*JobStatusOutput, error) {
	job, err := s.owned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	status := &JobStatusOutput{Job: job}
	if job.StartedAt != nil {
		end := time.Now().UTC()
		if job.CompletedAt != nil {
			end = *job.CompletedAt
		}
		status.ElapsedTime = end.Sub(*job.StartedAt)
	}
	// Linear estimate: assumes uniform per-unit cost, which is all the
	// progress counter can support.
	if job.Status == domain.JobRunning && job.Progress > 0 {
		remaining := status.ElapsedTime/time.Duration(job.Progress)*100 - status.ElapsedTime
		if remaining < 0 {
			remaining = 0
		}
		status.EstimatedTimeRemaining = &remaining
	}
	return status, nil
}

func (s *jobService) List(ctx context.Context, userID uuid.UUID, status *domain.JobStatus, offset, limit int) ([]domain.ImportJob, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.ListByUser(ctx, userID, status, offset, limit)
}

func (s *jobService) Cancel(ctx context.Context, jobID, userID uuid.UUID) error {
	job, err := s.owned(ctx, jobID, userID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrCancelNotAllowed
	}
	if err := s.jobs.RequestCancel(ctx, jobID); err != nil {
		return err
	}
	// Jobs a worker has not picked up yet are cancelled immediately;
	// running jobs transition when the orchestrator observes the flag.
	if job.Status == domain.JobPending || job.Status == domain.JobQueued {
		now := time.Now().UTC()
		job.Status = domain.JobCancelled
		job.CompletedAt = &now
		if err := s.jobs.Update(ctx, job); err != nil {
			return err
		}
	}
	s.logger.Info("jobService.Cancel: requested", zap.String("job_id", jobID.String()))
	return nil
}

func (s *jobService) Retry(ctx context.Context, jobID, userID uuid.UUID) (*domain.ImportJob, error) {
	job, err := s.owned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Retryable() {
		return nil, domain.ErrJobNotRetryable
	}
	if err := s.jobs.ResetForRetry(ctx, jobID); err != nil {
		return nil, err
	}
	s.logger.Info("jobService.Retry: re-queued", zap.String("job_id", jobID.String()))
	return s.jobs.GetByID(ctx, jobID)
}

// owned loads a job and enforces that userID submitted it.
func (s *jobService) owned(ctx context.Context, jobID, userID uuid.UUID) (*domain.ImportJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return job, nil
}
