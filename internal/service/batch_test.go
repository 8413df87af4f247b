package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salespipe/internal/domain"
	"salespipe/internal/service"
	"salespipe/mocks"
)

func setupBatchService() (service.BatchService, *mocks.MockImportService, *mocks.MockJobRepo) {
	importer := new(mocks.MockImportService)
	jobs := new(mocks.MockJobRepo)
	svc := service.NewBatchService(importer, jobs, zap.NewNop())
	return svc, importer, jobs
}

func accountSummary(created int) *domain.AccountImportResult {
	res := &domain.AccountImportResult{}
	res.Total = created
	res.Created = created
	return res
}

func productSummary(created int) *domain.ProductImportResult {
	res := &domain.ProductImportResult{}
	res.Total = created
	res.Created = created
	return res
}

func TestBatchService_ImportBatch_RunsStagesInOrder(t *testing.T) {
	svc, importer, jobs := setupBatchService()
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()

	var order []string
	importer.On("ImportAccounts", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "accounts") }).
		Return(accountSummary(2), nil)
	importer.On("ImportProducts", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "products") }).
		Return(productSummary(1), nil)

	job := &domain.ImportJob{ID: uuid.New(), Type: domain.JobTypeBatch, Status: domain.JobRunning}
	input := &service.BatchInput{
		UserID: uuid.New(),
		Files: map[domain.EntityType][]service.ImportInput{
			domain.EntityAccounts: {{FileName: "accounts.csv"}},
			domain.EntityProducts: {{FileName: "products.csv"}},
		},
	}

	result, err := svc.ImportBatch(context.Background(), job, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"accounts", "products"}, order)
	require.NotNil(t, result.Accounts)
	assert.Equal(t, 2, result.Accounts.Created)
	require.NotNil(t, result.Products)
	assert.Equal(t, 1, result.Products.Created)
	assert.False(t, result.Cancelled)

	require.Len(t, job.Stages, 2)
	assert.Equal(t, domain.EntityAccounts, job.Stages[0].Name)
	assert.Equal(t, domain.StageCompleted, job.Stages[0].Status)
	assert.Equal(t, domain.StageCompleted, job.Stages[1].Status)
	assert.Equal(t, 100, job.Progress)
}

func TestBatchService_ImportBatch_SkipsEntitiesWithoutFiles(t *testing.T) {
	svc, importer, jobs := setupBatchService()
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()
	importer.On("ImportProducts", mock.Anything, mock.Anything, mock.Anything).
		Return(productSummary(1), nil)

	job := &domain.ImportJob{ID: uuid.New(), Status: domain.JobRunning}
	input := &service.BatchInput{
		Files: map[domain.EntityType][]service.ImportInput{
			domain.EntityProducts: {{FileName: "products.csv"}},
		},
	}

	result, err := svc.ImportBatch(context.Background(), job, input)
	require.NoError(t, err)

	assert.Nil(t, result.Accounts)
	require.Len(t, job.Stages, 1)
	assert.Equal(t, domain.EntityProducts, job.Stages[0].Name)
	importer.AssertNotCalled(t, "ImportAccounts", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchService_ImportBatch_FailedStageDoesNotAbortBatch(t *testing.T) {
	svc, importer, jobs := setupBatchService()
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()

	// Every account row fails, so the stage is marked failed.
	failed := &domain.AccountImportResult{}
	failed.Total = 2
	failed.Failed = 2
	importer.On("ImportAccounts", mock.Anything, mock.Anything, mock.Anything).
		Return(failed, nil)
	importer.On("ImportProducts", mock.Anything, mock.Anything, mock.Anything).
		Return(productSummary(1), nil)

	job := &domain.ImportJob{ID: uuid.New(), Status: domain.JobRunning}
	input := &service.BatchInput{
		Files: map[domain.EntityType][]service.ImportInput{
			domain.EntityAccounts: {{FileName: "accounts.csv"}},
			domain.EntityProducts: {{FileName: "products.csv"}},
		},
	}

	result, err := svc.ImportBatch(context.Background(), job, input)
	require.NoError(t, err)

	assert.Equal(t, domain.StageFailed, job.Stages[0].Status)
	assert.Equal(t, domain.StageCompleted, job.Stages[1].Status)
	require.NotNil(t, result.Products)
	assert.Equal(t, 1, result.Products.Created)
}

func TestBatchService_ImportBatch_FileLevelFailureKeepsInvariant(t *testing.T) {
	svc, importer, _ := setupBatchService()
	importer.On("ImportAccounts", mock.Anything, mock.MatchedBy(func(in *service.ImportInput) bool {
		return in.FileName == "good.csv"
	}), mock.Anything).Return(accountSummary(3), nil)
	importer.On("ImportAccounts", mock.Anything, mock.MatchedBy(func(in *service.ImportInput) bool {
		return in.FileName == "bad.csv"
	}), mock.Anything).Return(nil, assert.AnError)

	input := &service.BatchInput{
		Files: map[domain.EntityType][]service.ImportInput{
			domain.EntityAccounts: {{FileName: "good.csv"}, {FileName: "bad.csv"}},
		},
	}

	result, err := svc.ImportBatch(context.Background(), nil, input)
	require.NoError(t, err)

	merged := result.Accounts
	require.NotNil(t, merged)
	assert.Equal(t, 4, merged.Total)
	assert.Equal(t, 3, merged.Created)
	assert.Equal(t, 1, merged.Failed)
	assert.True(t, merged.Consistent())
	require.Len(t, merged.Errors, 1)
	assert.Contains(t, merged.Errors[0].Message, "bad.csv")
}

func TestBatchService_ImportBatch_CancelSkipsRemainingStages(t *testing.T) {
	svc, importer, jobs := setupBatchService()
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	partial := accountSummary(1)
	importer.On("ImportAccounts", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(partial, nil)

	job := &domain.ImportJob{ID: uuid.New(), Status: domain.JobRunning}
	input := &service.BatchInput{
		Files: map[domain.EntityType][]service.ImportInput{
			domain.EntityAccounts: {{FileName: "accounts.csv"}},
			domain.EntityProducts: {{FileName: "products.csv"}},
			domain.EntityAssets:   {{FileName: "deck.pptx"}},
		},
	}

	result, err := svc.ImportBatch(ctx, job, input)
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	// Partial work is kept.
	require.NotNil(t, result.Accounts)
	assert.Equal(t, 1, result.Accounts.Created)

	// The interrupted stage is distinguishable from one that ran and failed.
	assert.Equal(t, domain.StageCancelled, job.Stages[0].Status)
	assert.Equal(t, domain.StageSkipped, job.Stages[1].Status)
	assert.Equal(t, domain.StageSkipped, job.Stages[2].Status)

	importer.AssertNotCalled(t, "ImportProducts", mock.Anything, mock.Anything, mock.Anything)
	importer.AssertNotCalled(t, "ImportAssets", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchService_ImportBatch_NoFilesIsNoOp(t *testing.T) {
	svc, importer, _ := setupBatchService()

	result, err := svc.ImportBatch(context.Background(), nil, &service.BatchInput{})
	require.NoError(t, err)

	assert.Nil(t, result.Accounts)
	assert.False(t, result.Cancelled)
	importer.AssertNotCalled(t, "ImportAccounts", mock.Anything, mock.Anything, mock.Anything)
}
