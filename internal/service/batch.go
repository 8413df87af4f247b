package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salespipe/internal/domain"
	"salespipe/internal/port"
)

// BatchInput is the DTO for a coordinated multi-entity import. Files are
// keyed by the entity they feed; ProcessOrder defaults to
// accounts, products, opportunities, assets.
type BatchInput struct {
	UserID        uuid.UUID
	Files         map[domain.EntityType][]ImportInput
	ProcessOrder  []domain.EntityType
	Accounts      AccountImportOptions
	Products      ProductImportOptions
	Opportunities OpportunityImportOptions
	Assets        AssetImportOptions
}

// BatchService coordinates multi-entity imports. Stages run sequentially in
// process order because later stages depend on records created by earlier
// ones; work within a stage may be parallel.
type BatchService interface {
	// ImportBatch runs the batch. When job is non-nil its stages and
	// progress are updated as the batch advances; the final status
	// transition is the caller's responsibility.
	ImportBatch(ctx context.Context, job *domain.ImportJob, input *BatchInput) (*domain.BatchImportResult, error)
}

type batchService struct {
	importer ImportService
	jobs     port.JobRepository
	logger   *zap.Logger
}

// NewBatchService creates the batch coordinator. jobs may be nil for
// synchronous use without tracking.
func NewBatchService(importer ImportService, jobs port.JobRepository, logger *zap.Logger) BatchService {
	return &batchService{importer: importer, jobs: jobs, logger: logger}
}

func (s *batchService) ImportBatch(ctx context.Context, job *domain.ImportJob, input *BatchInput) (*domain.BatchImportResult, error) {
	start := time.Now()
	result := &domain.BatchImportResult{}

	order := input.ProcessOrder
	if len(order) == 0 {
		order = domain.DefaultProcessOrder
	}
	var stages []domain.EntityType
	for _, entity := range order {
		if len(input.Files[entity]) > 0 {
			stages = append(stages, entity)
		}
	}
	if len(stages) == 0 {
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	if job != nil {
		job.Stages = make(domain.StageList, len(stages))
		for i, entity := range stages {
			job.Stages[i] = domain.ImportStage{Name: entity, Status: domain.StagePending}
		}
		s.updateJob(ctx, job)
	}

	for i, entity := range stages {
		if cancelled(ctx) {
			result.Cancelled = true
			s.markSkipped(ctx, job, i)
			break
		}

		s.setStage(ctx, job, i, domain.StageRunning, 0)

		failed := s.runStage(ctx, job, i, len(stages), entity, input, result)

		if cancelled(ctx) {
			result.Cancelled = true
			// Interrupted mid-stage is distinct from a stage that ran and
			// produced nothing; it keeps whatever progress it reached.
			s.setStage(ctx, job, i, domain.StageCancelled, stageProgress(job, i))
			s.markSkipped(ctx, job, i+1)
			break
		}
		status := domain.StageCompleted
		if failed {
			status = domain.StageFailed
		}
		s.setStage(ctx, job, i, status, 100)
		if job != nil {
			job.Progress = (i + 1) * 100 / len(stages)
			s.updateJob(ctx, job)
		}
	}

	result.ProcessingTime = time.Since(start)
	s.logger.Info("batchService.ImportBatch: done",
		zap.Int("stages", len(stages)),
		zap.Bool("cancelled", result.Cancelled),
		zap.Duration("took", result.ProcessingTime))
	return result, nil
}

// runStage executes one entity stage over its files, merging per-file
// summaries. Returns true when nothing in the stage imported successfully.
func (s *batchService) runStage(ctx context.Context, job *domain.ImportJob, stageIdx, stageCount int, entity domain.EntityType, input *BatchInput, result *domain.BatchImportResult) bool {
	files := input.Files[entity]

	advance := func(done int) {
		if job == nil {
			return
		}
		stagePct := done * 100 / len(files)
		job.Progress = (stageIdx*100 + stagePct) / stageCount
		if len(job.Stages) > stageIdx {
			job.Stages[stageIdx].Progress = stagePct
		}
		s.updateJob(ctx, job)
	}

	switch entity {
	case domain.EntityAccounts:
		merged := &domain.AccountImportResult{}
		for n := range files {
			if cancelled(ctx) {
				break
			}
			res, err := s.importer.ImportAccounts(ctx, &files[n], input.Accounts)
			var sum *domain.ImportSummary
			if res != nil {
				sum = &res.ImportSummary
			}
			mergeInto(&merged.ImportSummary, sum, err, files[n].FileName)
			if res != nil {
				merged.ChunksGenerated += res.ChunksGenerated
				merged.VectorsStored += res.VectorsStored
			}
			advance(n + 1)
		}
		result.Accounts = merged
		return merged.Created+merged.Updated+merged.Skipped == 0

	case domain.EntityProducts:
		merged := &domain.ProductImportResult{}
		for n := range files {
			if cancelled(ctx) {
				break
			}
			res, err := s.importer.ImportProducts(ctx, &files[n], input.Products)
			var sum *domain.ImportSummary
			if res != nil {
				sum = &res.ImportSummary
			}
			mergeInto(&merged.ImportSummary, sum, err, files[n].FileName)
			if res != nil {
				merged.VersionsClosed += res.VersionsClosed
			}
			advance(n + 1)
		}
		result.Products = merged
		return merged.Created+merged.Updated+merged.Skipped == 0

	case domain.EntityOpportunities:
		merged := &domain.OpportunityImportResult{}
		for n := range files {
			if cancelled(ctx) {
				break
			}
			res, err := s.importer.ImportOpportunities(ctx, &files[n], input.Opportunities)
			var sum *domain.ImportSummary
			if res != nil {
				sum = &res.ImportSummary
			}
			mergeInto(&merged.ImportSummary, sum, err, files[n].FileName)
			if res != nil {
				merged.AccountsCreated += res.AccountsCreated
				merged.ProductsLinked += res.ProductsLinked
			}
			advance(n + 1)
		}
		result.Opportunities = merged
		return merged.Created+merged.Updated+merged.Skipped == 0

	case domain.EntityAssets:
		results, _ := s.importer.ImportAssets(ctx, files, input.Assets)
		result.Assets = results
		advance(len(files))
		imported := 0
		for _, r := range results {
			imported += r.Created
		}
		return imported == 0
	}
	return true
}

// mergeInto folds one file's summary into the stage total. A file-level
// failure (unparseable, unsupported) counts as one failed unit so the
// counter invariant still holds.
func mergeInto(dst, src *domain.ImportSummary, err error, fileName string) {
	if src == nil {
		dst.Total++
		msg := "no result"
		if err != nil {
			msg = err.Error()
		}
		dst.AddError(-1, fileName+": "+msg)
		return
	}
	dst.Total += src.Total
	dst.Created += src.Created
	dst.Updated += src.Updated
	dst.Failed += src.Failed
	dst.Skipped += src.Skipped
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}

// setStage updates one stage record and persists when a job is attached.
func (s *batchService) setStage(ctx context.Context, job *domain.ImportJob, idx int, status domain.StageStatus, progress int) {
	if job == nil || len(job.Stages) <= idx {
		return
	}
	job.Stages[idx].Status = status
	job.Stages[idx].Progress = progress
	s.updateJob(ctx, job)
}

// markSkipped flags every stage from idx onward as skipped.
func (s *batchService) markSkipped(ctx context.Context, job *domain.ImportJob, idx int) {
	if job == nil {
		return
	}
	for i := idx; i < len(job.Stages); i++ {
		if job.Stages[i].Status == domain.StagePending {
			job.Stages[i].Status = domain.StageSkipped
		}
	}
	s.updateJob(ctx, job)
}

func stageProgress(job *domain.ImportJob, idx int) int {
	if job == nil || len(job.Stages) <= idx {
		return 0
	}
	return job.Stages[idx].Progress
}

// updateJob persists job state best-effort; a tracking write failure never
// interrupts the import itself.
func (s *batchService) updateJob(ctx context.Context, job *domain.ImportJob) {
	if s.jobs == nil || job == nil {
		return
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Warn("batchService: job update failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}
