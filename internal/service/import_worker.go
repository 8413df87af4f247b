package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

// ImportWorkerConfig holds settings for the import queue worker.
type ImportWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
}

// ImportWorker polls for queued import jobs and runs them. A claimed job is
// mutated by exactly one worker goroutine; cancel requests from other
// processes reach it through the repo-backed cancel flag.
type ImportWorker struct {
	jobs    port.JobRepository
	batch   BatchService
	storage port.ObjectStorage
	bucket  string
	cfg     ImportWorkerConfig
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewImportWorker creates a new ImportWorker.
func NewImportWorker(jobs port.JobRepository, batch BatchService, storage port.ObjectStorage, bucket string, cfg ImportWorkerConfig, logger *zap.Logger) *ImportWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	return &ImportWorker{
		jobs:    jobs,
		batch:   batch,
		storage: storage,
		bucket:  bucket,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *ImportWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	w.logger.Info("importWorker: started",
		zap.Duration("poll", w.cfg.PollInterval),
		zap.Int("concurrency", w.cfg.Concurrency))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("importWorker: shutting down, waiting for in-flight jobs")
			w.wg.Wait()
			w.logger.Info("importWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobs.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.logger.Error("importWorker: claim failed", zap.Error(err))
				continue
			}

			for i := range jobs {
				job := jobs[i]

				sem <- struct{}{}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()

					// Fresh context so in-flight jobs complete even
					// during worker shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
					defer cancel()

					w.runJob(jobCtx, cancel, &job)
				}()
			}
		}
	}
}

// runJob executes one claimed job end to end and records the terminal state.
func (w *ImportWorker) runJob(ctx context.Context, cancel context.CancelFunc, job *domain.ImportJob) {
	w.logger.Info("importWorker: running job",
		zap.String("job_id", job.ID.String()),
		zap.String("type", string(job.Type)))

	stopWatch := w.watchCancel(ctx, cancel, job.ID)
	defer stopWatch()

	input, err := w.loadBatchInput(ctx, job)
	if err != nil {
		w.finish(job, domain.JobFailed, nil, err)
		return
	}

	result, err := w.batch.ImportBatch(ctx, job, input)

	requested, flagErr := w.jobs.CancelRequested(context.Background(), job.ID)
	if flagErr != nil {
		w.logger.Warn("importWorker: cancel flag read failed",
			zap.String("job_id", job.ID.String()), zap.Error(flagErr))
	}

	switch {
	case requested:
		w.finish(job, domain.JobCancelled, result, nil)
	case result != nil && result.Cancelled:
		// The job context ends two ways: the repo cancel flag via
		// watchCancel, or the per-job timeout. A timed-out job must stay
		// retry-eligible, so it fails instead of reporting a cancellation.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			w.finish(job, domain.JobFailed, result,
				fmt.Errorf("import timed out after %s", w.cfg.JobTimeout))
		} else {
			w.finish(job, domain.JobCancelled, result, nil)
		}
	case err != nil:
		w.finish(job, domain.JobFailed, result, err)
	default:
		job.Progress = 100
		w.finish(job, domain.JobCompleted, result, nil)
	}
}

// watchCancel polls the repo-backed cancel flag and cancels the job context
// when it is set. The returned func stops the watcher.
func (w *ImportWorker) watchCancel(ctx context.Context, cancel context.CancelFunc, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				requested, err := w.jobs.CancelRequested(ctx, jobID)
				if err == nil && requested {
					cancel()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// loadBatchInput rebuilds the batch input from the job payload, downloading
// staged file buffers from object storage.
func (w *ImportWorker) loadBatchInput(ctx context.Context, job *domain.ImportJob) (*BatchInput, error) {
	var payload JobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, err
	}

	input := &BatchInput{
		UserID:        job.UserID,
		Files:         make(map[domain.EntityType][]ImportInput),
		ProcessOrder:  payload.ProcessOrder,
		Accounts:      payload.Accounts,
		Products:      payload.Products,
		Opportunities: payload.Opportunities,
		Assets:        payload.Assets,
	}
	for entity, files := range payload.Files {
		for _, f := range files {
			data, err := w.storage.Download(ctx, w.bucket, f.StorageKey)
			if err != nil {
				return nil, err
			}
			input.Files[entity] = append(input.Files[entity], ImportInput{
				UserID:   job.UserID,
				FileName: f.FileName,
				MIMEType: f.MIMEType,
				Data:     data,
			})
		}
	}
	return input, nil
}

// finish writes the terminal job state. Uses a background context so the
// result survives job-context cancellation.
func (w *ImportWorker) finish(job *domain.ImportJob, status domain.JobStatus, result *domain.BatchImportResult, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &now
	if cause != nil {
		job.ErrorMessage = cause.Error()
	}
	if result != nil {
		if raw, err := json.Marshal(result); err == nil {
			job.Result = raw
		}
	}
	if err := w.jobs.Update(ctx, job); err != nil {
		w.logger.Error("importWorker: terminal update failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
		return
	}
	w.logger.Info("importWorker: job finished",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(status)))
}
