package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"salespipe/internal/domain"
)

// MockProductRepo is a mock implementation of port.ProductRepository.
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, prod *domain.Product) error {
	args := m.Called(ctx, prod)
	return args.Error(0)
}

func (m *MockProductRepo) Update(ctx context.Context, prod *domain.Product) error {
	args := m.Called(ctx, prod)
	return args.Error(0)
}

func (m *MockProductRepo) FindCurrentByItemNumber(ctx context.Context, itemNumber string) (*domain.Product, error) {
	args := m.Called(ctx, itemNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepo) CloseCurrentVersion(ctx context.Context, itemNumber string, at time.Time) error {
	args := m.Called(ctx, itemNumber, at)
	return args.Error(0)
}
