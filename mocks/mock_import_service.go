package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespipe/internal/domain"
	"salespipe/internal/service"
)

// MockImportService is a mock implementation of service.ImportService.
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportAccounts(ctx context.Context, input *service.ImportInput, opts service.AccountImportOptions) (*domain.AccountImportResult, error) {
	args := m.Called(ctx, input, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountImportResult), args.Error(1)
}

func (m *MockImportService) ImportProducts(ctx context.Context, input *service.ImportInput, opts service.ProductImportOptions) (*domain.ProductImportResult, error) {
	args := m.Called(ctx, input, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductImportResult), args.Error(1)
}

func (m *MockImportService) ImportOpportunities(ctx context.Context, input *service.ImportInput, opts service.OpportunityImportOptions) (*domain.OpportunityImportResult, error) {
	args := m.Called(ctx, input, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OpportunityImportResult), args.Error(1)
}

func (m *MockImportService) ImportAsset(ctx context.Context, input *service.ImportInput, opts service.AssetImportOptions) (*domain.AssetImportResult, error) {
	args := m.Called(ctx, input, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssetImportResult), args.Error(1)
}

func (m *MockImportService) ImportAssets(ctx context.Context, inputs []service.ImportInput, opts service.AssetImportOptions) ([]domain.AssetImportResult, error) {
	args := m.Called(ctx, inputs, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssetImportResult), args.Error(1)
}

func (m *MockImportService) ValidateFile(ctx context.Context, input *service.ImportInput, entity domain.EntityType) (*domain.FileValidationResult, error) {
	args := m.Called(ctx, input, entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileValidationResult), args.Error(1)
}

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) ImportBatch(ctx context.Context, job *domain.ImportJob, input *service.BatchInput) (*domain.BatchImportResult, error) {
	args := m.Called(ctx, job, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchImportResult), args.Error(1)
}
